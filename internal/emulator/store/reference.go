package store

import (
	"encoding/json"

	"github.com/shweproperty/buildingbooks/internal/emulator/models"
	"github.com/shweproperty/buildingbooks/pkg/api"
)

// inScope reports whether a record's building matches the requested scope.
// Scope 0 is the unscoped /v1 fallback and matches everything.
func inScope(buildingID, recordBuildingID int64) bool {
	return buildingID == 0 || buildingID == recordBuildingID
}

// CreateBuilding stores a building.
func (s *Store) CreateBuilding(b models.Building) (*models.Building, error) {
	id, err := s.nextID(BucketBuildings)
	if err != nil {
		return nil, err
	}
	b.ID = id
	if b.Status == "" {
		b.Status = api.StatusActive
	}
	if err := s.put(BucketBuildings, id, b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBuildings lists all buildings.
func (s *Store) ListBuildings() ([]models.Building, error) {
	var buildings []models.Building
	err := s.listInto(BucketBuildings, func(data []byte) error {
		var b models.Building
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		buildings = append(buildings, b)
		return nil
	})
	return buildings, err
}

// CreateAccount stores a ledger account.
func (s *Store) CreateAccount(a models.Account) (*models.Account, error) {
	id, err := s.nextID(BucketAccounts)
	if err != nil {
		return nil, err
	}
	a.ID = id
	if a.Status == "" {
		a.Status = api.StatusActive
	}
	if err := s.put(BucketAccounts, id, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount retrieves one account.
func (s *Store) GetAccount(id int64) (*models.Account, error) {
	var a models.Account
	if err := s.get(BucketAccounts, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAccounts lists accounts in scope.
func (s *Store) ListAccounts(buildingID int64) ([]models.Account, error) {
	var accounts []models.Account
	err := s.listInto(BucketAccounts, func(data []byte) error {
		var a models.Account
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		if inScope(buildingID, a.BuildingID) {
			accounts = append(accounts, a)
		}
		return nil
	})
	return accounts, err
}

// CreateUnit stores a unit.
func (s *Store) CreateUnit(u models.Unit) (*models.Unit, error) {
	id, err := s.nextID(BucketUnits)
	if err != nil {
		return nil, err
	}
	u.ID = id
	if u.Status == "" {
		u.Status = api.StatusActive
	}
	if err := s.put(BucketUnits, id, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUnits lists units in scope.
func (s *Store) ListUnits(buildingID int64) ([]models.Unit, error) {
	var units []models.Unit
	err := s.listInto(BucketUnits, func(data []byte) error {
		var u models.Unit
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		if inScope(buildingID, u.BuildingID) {
			units = append(units, u)
		}
		return nil
	})
	return units, err
}

// CreatePeople stores a tenant/customer record.
func (s *Store) CreatePeople(p models.People) (*models.People, error) {
	id, err := s.nextID(BucketPeople)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if p.Status == "" {
		p.Status = api.StatusActive
	}
	if err := s.put(BucketPeople, id, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPeople lists tenants/customers in scope.
func (s *Store) ListPeople(buildingID int64) ([]models.People, error) {
	var people []models.People
	err := s.listInto(BucketPeople, func(data []byte) error {
		var p models.People
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if inScope(buildingID, p.BuildingID) {
			people = append(people, p)
		}
		return nil
	})
	return people, err
}

// CreateItem stores a billable item.
func (s *Store) CreateItem(i models.Item) (*models.Item, error) {
	id, err := s.nextID(BucketItems)
	if err != nil {
		return nil, err
	}
	i.ID = id
	if i.Status == "" {
		i.Status = api.StatusActive
	}
	if err := s.put(BucketItems, id, i); err != nil {
		return nil, err
	}
	return &i, nil
}

// ListItems lists billable items in scope.
func (s *Store) ListItems(buildingID int64) ([]models.Item, error) {
	var items []models.Item
	err := s.listInto(BucketItems, func(data []byte) error {
		var i models.Item
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if inScope(buildingID, i.BuildingID) {
			items = append(items, i)
		}
		return nil
	})
	return items, err
}

// CreateUser stores a login user.
func (s *Store) CreateUser(u models.User) (*models.User, error) {
	id, err := s.nextID(BucketUsers)
	if err != nil {
		return nil, err
	}
	u.ID = id
	if err := s.put(BucketUsers, id, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername finds a user by username.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var found *models.User
	err := s.listInto(BucketUsers, func(data []byte) error {
		var u models.User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		if u.Username == username {
			found = &u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

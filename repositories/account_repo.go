package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
)

func (s *Store) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

func (s *Store) UserExists(email, username string) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) FindUserByIdentifier(identifier string) (*models.User, error) {
	var user models.User
	err := s.db.Scopes(live).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) CreateAddress(address *models.Address) error {
	return s.db.Create(address).Error
}

func (s *Store) GetAddressForUser(id, userID uint) (*models.Address, error) {
	var address models.Address
	err := s.db.Scopes(live).Where("user_id = ?", userID).First(&address, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (s *Store) GetAddress(id uint) (*models.Address, error) {
	var address models.Address
	if err := s.db.Scopes(live).First(&address, id).Error; err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (s *Store) HasDefaultAddress(userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Address{}).Scopes(live).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) ListAddresses(userID uint) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.Scopes(live).Where("user_id = ?", userID).Order("city, street").Find(&addresses).Error
	return addresses, err
}

func (s *Store) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(live).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) DefaultAddress(userID uint) (*models.Address, error) {
	var address models.Address
	err := s.db.Scopes(live).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&address).Error
	if err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

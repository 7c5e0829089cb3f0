package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
)

func (s *Store) CreatePayment(payment *models.Payment) error {
	return s.db.Omit("Order").Create(payment).Error
}

func (s *Store) SavePayment(payment *models.Payment) error {
	return s.db.Omit("Order").Save(payment).Error
}

func (s *Store) GetPayment(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Scopes(live).First(&payment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (s *Store) LockPayment(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Scopes(live, forUpdate).First(&payment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

// PaymentExistsForOrder includes soft-deleted rows: the order_id column is
// unique across the table.
func (s *Store) PaymentExistsForOrder(orderID uint) (bool, error) {
	var count int64
	err := s.db.Unscoped().Model(&models.Payment{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (s *Store) TransactionIDExists(transactionID string) (bool, error) {
	var count int64
	err := s.db.Unscoped().Model(&models.Payment{}).Where("transaction_id = ?", transactionID).Count(&count).Error
	return count > 0, err
}

func (s *Store) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Scopes(live).Where("transaction_id = ?", transactionID).First(&payment).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

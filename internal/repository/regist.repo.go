package repository

import (
	checkoutRepo "storefront-checkout/internal/repository/checkout"
)

// IRepository is a container for all repository interfaces
type IRepository struct {
	Checkout checkoutRepo.IRepository
}

package dto

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/inventory"
)

// ItemResponse is the API shape of one inventory item.
type ItemResponse struct {
	ID                 string      `json:"id"`
	Version            int         `json:"version"`
	ProductID          string      `json:"productId"`
	ProductDescription string      `json:"productDescription"`
	UnitOfMeasurement  string      `json:"unitOfMeasurement,omitempty"`
	Quantity           int64       `json:"quantity"`
	RemainingQuantity  int64       `json:"remainingQuantity"`
	UnitPrice          types.Money `json:"unitPrice"`
	FinalAmount        types.Money `json:"finalAmount"`
	DocumentNumber     string      `json:"documentNumber,omitempty"`
	InvoiceNumberRef   string      `json:"invoiceNumberRef,omitempty"`
	DocumentDate       time.Time   `json:"documentDate"`
	Seller             string      `json:"seller,omitempty"`
	SellerProvince     string      `json:"sellerProvince,omitempty"`
	ActivityType       string      `json:"activityType,omitempty"`
	Origin             string      `json:"origin,omitempty"`
	ItemCategory       string      `json:"itemCategory,omitempty"`
	Remarks            string      `json:"remarks,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// FromItem creates ItemResponse from an inventory item.
func FromItem(item *inventory.Item) ItemResponse {
	return ItemResponse{
		ID:                 item.ID.String(),
		Version:            item.Version,
		ProductID:          item.ProductID,
		ProductDescription: item.ProductDescription,
		UnitOfMeasurement:  item.UnitOfMeasurement,
		Quantity:           item.Quantity,
		RemainingQuantity:  item.RemainingQuantity,
		UnitPrice:          item.UnitPrice,
		FinalAmount:        item.FinalAmount,
		DocumentNumber:     item.DocumentNumber,
		InvoiceNumberRef:   item.InvoiceNumberRef,
		DocumentDate:       item.DocumentDate,
		Seller:             item.Seller,
		SellerProvince:     item.SellerProvince,
		ActivityType:       item.ActivityType,
		Origin:             item.Origin,
		ItemCategory:       item.ItemCategory,
		Remarks:            item.Remarks,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}
}

// FromItems maps a slice of items.
func FromItems(items []*inventory.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// CreateItemRequest for creating items.
type CreateItemRequest struct {
	ProductID          string    `json:"productId" binding:"required"`
	ProductDescription string    `json:"productDescription" binding:"required"`
	UnitOfMeasurement  string    `json:"unitOfMeasurement"`
	Quantity           int64     `json:"quantity" binding:"required,min=1"`
	UnitPrice          string    `json:"unitPrice" binding:"required"`
	DocumentNumber     string    `json:"documentNumber"`
	InvoiceNumberRef   string    `json:"invoiceNumberRef"`
	DocumentDate       time.Time `json:"documentDate"`
	Seller             string    `json:"seller"`
	SellerProvince     string    `json:"sellerProvince"`
	ActivityType       string    `json:"activityType"`
	Origin             string    `json:"origin"`
	ItemCategory       string    `json:"itemCategory"`
	Remarks            string    `json:"remarks"`
}

// ToItem converts the request into a new inventory item.
func (r *CreateItemRequest) ToItem() (*inventory.Item, error) {
	price, err := types.NewMoneyFromString(r.UnitPrice)
	if err != nil {
		return nil, apperror.NewValidation("unitPrice is not a valid number")
	}

	item := inventory.NewItem(r.ProductID, r.ProductDescription, r.Quantity, price)
	item.UnitOfMeasurement = r.UnitOfMeasurement
	item.DocumentNumber = r.DocumentNumber
	item.InvoiceNumberRef = r.InvoiceNumberRef
	item.DocumentDate = r.DocumentDate
	item.Seller = r.Seller
	item.SellerProvince = r.SellerProvince
	item.ActivityType = r.ActivityType
	item.Origin = r.Origin
	item.ItemCategory = r.ItemCategory
	item.Remarks = r.Remarks
	return item, nil
}

// UpdateItemRequest for updating items. Version is required for optimistic
// locking; quantity resets remaining quantity on the server side.
type UpdateItemRequest struct {
	ProductID          *string    `json:"productId"`
	ProductDescription *string    `json:"productDescription"`
	UnitOfMeasurement  *string    `json:"unitOfMeasurement"`
	Quantity           *int64     `json:"quantity" binding:"omitempty,min=1"`
	UnitPrice          *string    `json:"unitPrice"`
	DocumentNumber     *string    `json:"documentNumber"`
	InvoiceNumberRef   *string    `json:"invoiceNumberRef"`
	DocumentDate       *time.Time `json:"documentDate"`
	Seller             *string    `json:"seller"`
	SellerProvince     *string    `json:"sellerProvince"`
	ActivityType       *string    `json:"activityType"`
	Origin             *string    `json:"origin"`
	ItemCategory       *string    `json:"itemCategory"`
	Remarks            *string    `json:"remarks"`
	Version            int        `json:"version" binding:"required,min=1"`
}

// Apply overlays the request onto an existing item.
func (r *UpdateItemRequest) Apply(item *inventory.Item) error {
	if r.ProductID != nil {
		item.ProductID = *r.ProductID
	}
	if r.ProductDescription != nil {
		item.ProductDescription = *r.ProductDescription
	}
	if r.UnitOfMeasurement != nil {
		item.UnitOfMeasurement = *r.UnitOfMeasurement
	}
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	if r.UnitPrice != nil {
		price, err := types.NewMoneyFromString(*r.UnitPrice)
		if err != nil {
			return apperror.NewValidation("unitPrice is not a valid number")
		}
		item.UnitPrice = price
	}
	if r.DocumentNumber != nil {
		item.DocumentNumber = *r.DocumentNumber
	}
	if r.InvoiceNumberRef != nil {
		item.InvoiceNumberRef = *r.InvoiceNumberRef
	}
	if r.DocumentDate != nil {
		item.DocumentDate = *r.DocumentDate
	}
	if r.Seller != nil {
		item.Seller = *r.Seller
	}
	if r.SellerProvince != nil {
		item.SellerProvince = *r.SellerProvince
	}
	if r.ActivityType != nil {
		item.ActivityType = *r.ActivityType
	}
	if r.Origin != nil {
		item.Origin = *r.Origin
	}
	if r.ItemCategory != nil {
		item.ItemCategory = *r.ItemCategory
	}
	if r.Remarks != nil {
		item.Remarks = *r.Remarks
	}
	item.Version = r.Version
	return nil
}

// ItemListRequest contains list filters.
type ItemListRequest struct {
	PaginationRequest
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
}

// ImportResponse summarizes a bulk intake upload.
type ImportResponse struct {
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Warnings []string `json:"warnings,omitempty"`
}

package importjob

import "github.com/shopspring/decimal"

// Record is one mapped CSV row, ready to be written to its destination table.
type Record interface {
	ImportType() ImportType
}

type Contact struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Company    string
	JobTitle   string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	Source     string
	Notes      string
}

func (Contact) ImportType() ImportType { return TypeContacts }

// RepositoryRecord belongs to the tenant-exclusive repository table. Email and
// InstitutionalEmail are each unique per organization.
type RepositoryRecord struct {
	Name               string
	Email              string
	InstitutionalEmail string
	Phone              string
	Document           string
	Institution        string
	Department         string
	City               string
	State              string
	PostalCode         string
	Notes              string
}

func (RepositoryRecord) ImportType() ImportType { return TypeRepository }

type InventoryItem struct {
	SKU          string
	Name         string
	Description  string
	Category     string
	Unit         string
	Quantity     int64
	MinimumStock int64
	UnitPrice    *decimal.Decimal
	Location     string
	Supplier     string
}

func (InventoryItem) ImportType() ImportType { return TypeInventory }

type EmailRecipient struct {
	Email     string
	Name      string
	FirstName string
	LastName  string
	Company   string
}

func (EmailRecipient) ImportType() ImportType { return TypeEmailRecipients }

type WhatsAppRecipient struct {
	PhoneNumber string
	Email       string
	Name        string
}

func (WhatsAppRecipient) ImportType() ImportType { return TypeWhatsAppRecipients }

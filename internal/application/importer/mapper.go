package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

var (
	errMissingName  = errors.New("name is required")
	errMissingSKU   = errors.New("item id is required")
	errMissingEmail = errors.New("email is required")
	errInvalidEmail = errors.New("invalid email")
	errMissingPhone = errors.New("phone number is required")
	errInvalidPhone = errors.New("invalid phone number")
)

var validate = validator.New()

// RowMapper builds the target record for one normalized row.
type RowMapper interface {
	MapRow(row Row) (domain.Record, error)
}

func MapperFor(importType domain.ImportType) (RowMapper, error) {
	switch importType {
	case domain.TypeContacts:
		return contactMapper{}, nil
	case domain.TypeRepository:
		return repositoryMapper{}, nil
	case domain.TypeInventory:
		return inventoryMapper{}, nil
	case domain.TypeEmailRecipients:
		return emailRecipientMapper{}, nil
	case domain.TypeWhatsAppRecipients:
		return whatsAppRecipientMapper{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidImportType, importType)
	}
}

var (
	postalCodeKeys = []string{"postal_code", "zip_code", "zipcode", "zip", "cep"}
	phoneKeys      = []string{"phone", "phone_number", "mobile", "telephone"}

	// Required fields. The first key of each list is the canonical column.
	contactNameKeys    = []string{"first_name", "name", "full_name"}
	repositoryNameKeys = []string{"name", "full_name"}
	itemIDKeys         = []string{"item_id"}
	emailKeys          = []string{"email", "email_address"}
	whatsAppPhoneKeys  = []string{"phone_number", "phone", "whatsapp", "mobile"}
)

type contactMapper struct{}

func (contactMapper) MapRow(row Row) (domain.Record, error) {
	firstName := row.First(contactNameKeys...)
	if firstName == "" {
		return nil, errMissingName
	}

	return domain.Contact{
		FirstName:  firstName,
		LastName:   row.First("last_name", "surname"),
		Email:      normalizeEmail(row.First(emailKeys...)),
		Phone:      row.First(phoneKeys...),
		Company:    row.First("company", "company_name", "organization"),
		JobTitle:   row.First("job_title", "title", "position"),
		Address:    row.First("address", "street", "street_address"),
		City:       row.First("city"),
		State:      row.First("state", "province", "region"),
		PostalCode: row.First(postalCodeKeys...),
		Country:    row.First("country"),
		Source:     row.First("source", "lead_source"),
		Notes:      row.First("notes", "note", "comments"),
	}, nil
}

type repositoryMapper struct{}

func (repositoryMapper) MapRow(row Row) (domain.Record, error) {
	name := row.First(repositoryNameKeys...)
	if name == "" {
		return nil, errMissingName
	}

	return domain.RepositoryRecord{
		Name:               name,
		Email:              normalizeEmail(row.First("email", "personal_email")),
		InstitutionalEmail: normalizeEmail(row.First("institutional_email", "work_email", "corporate_email")),
		Phone:              row.First(phoneKeys...),
		Document:           row.First("document", "document_number", "registration_number"),
		Institution:        row.First("institution", "organization"),
		Department:         row.First("department", "unit"),
		City:               row.First("city"),
		State:              row.First("state", "province"),
		PostalCode:         row.First(postalCodeKeys...),
		Notes:              row.First("notes", "comments"),
	}, nil
}

type inventoryMapper struct{}

func (inventoryMapper) MapRow(row Row) (domain.Record, error) {
	sku := row.First(itemIDKeys...)
	if sku == "" {
		return nil, errMissingSKU
	}

	return domain.InventoryItem{
		SKU:          sku,
		Name:         row.First("name"),
		Description:  row.First("description"),
		Category:     row.First("category"),
		Unit:         row.First("unit"),
		Quantity:     row.Int("quantity"),
		MinimumStock: row.Int("min_stock"),
		UnitPrice:    row.Decimal("unit_price"),
		Location:     row.First("location"),
		Supplier:     row.First("supplier"),
	}, nil
}

type emailRecipientMapper struct{}

func (emailRecipientMapper) MapRow(row Row) (domain.Record, error) {
	email := normalizeEmail(row.First(emailKeys...))
	if email == "" {
		return nil, errMissingEmail
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidEmail, email)
	}

	firstName := row.First("first_name")
	lastName := row.First("last_name")
	name := row.First("name", "full_name")
	if name == "" {
		name = strings.TrimSpace(firstName + " " + lastName)
	}

	return domain.EmailRecipient{
		Email:     email,
		Name:      name,
		FirstName: firstName,
		LastName:  lastName,
		Company:   row.First("company", "company_name"),
	}, nil
}

type whatsAppRecipientMapper struct{}

func (whatsAppRecipientMapper) MapRow(row Row) (domain.Record, error) {
	rawPhone := row.First(whatsAppPhoneKeys...)
	if rawPhone == "" {
		return nil, errMissingPhone
	}
	phone := normalizePhone(rawPhone)
	if phone == "" {
		return nil, fmt.Errorf("%w: %s", errInvalidPhone, rawPhone)
	}

	email := normalizeEmail(row.First(emailKeys...))
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return nil, fmt.Errorf("%w: %s", errInvalidEmail, email)
		}
	}

	return domain.WhatsAppRecipient{
		PhoneNumber: phone,
		Email:       email,
		Name:        row.First("name", "full_name", "first_name"),
	}, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizePhone keeps digits and a leading plus sign. Numbers with fewer
// than eight digits are rejected.
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if digits < 8 {
		return ""
	}
	return b.String()
}

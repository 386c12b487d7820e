package collection

import (
	"database/sql"

	"sushi-samurai/internal/domain"

	"github.com/google/uuid"
)

// Collections is the registry of table bindings. One binding per named
// server-side table keeps access typed without per-entity boilerplate.
type Collections struct {
	Users       *Table[domain.User]
	Products    *Table[domain.Product]
	Categories  *Table[domain.Category]
	Orders      *Table[domain.Order]
	OrderItems  *Table[domain.OrderItem]
	Media       *Table[domain.Media]
	HealthCheck *Table[domain.HealthCheck]
}

// New binds all known tables against the given database handle.
func New(db *sql.DB) *Collections {
	return &Collections{
		Users: NewTable(db, "users",
			[]string{"id", "email", "role", "full_name", "avatar_url", "created_at", "updated_at"},
			scanUser),
		Products: NewTable(db, "products",
			[]string{"id", "title", "slug", "price", "description", "image_url", "category_id", "is_available", "created_at", "updated_at"},
			scanProduct),
		Categories: NewTable(db, "categories",
			[]string{"id", "name", "slug", "description", "parent_id", "created_at", "updated_at"},
			scanCategory),
		Orders: NewTable(db, "orders",
			[]string{"id", "user_id", "status", "total_price", "delivery_method", "delivery_address", "delivery_notes", "created_at", "updated_at"},
			scanOrder),
		OrderItems: NewTable(db, "order_items",
			[]string{"id", "order_id", "product_id", "quantity", "price", "notes", "created_at"},
			scanOrderItem),
		Media: NewTable(db, "media",
			[]string{"id", "name", "file_path", "mime_type", "size", "user_id", "metadata", "created_at", "updated_at"},
			scanMedia),
		HealthCheck: NewTable(db, "health_check",
			[]string{"id", "status", "created_at"},
			scanHealthCheck),
	}
}

func scanUser(s Scanner) (*domain.User, error) {
	var u domain.User
	var fullName, avatarURL sql.NullString
	if err := s.Scan(&u.ID, &u.Email, &u.Role, &fullName, &avatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.FullName = nullableString(fullName)
	u.AvatarURL = nullableString(avatarURL)
	return &u, nil
}

func scanProduct(s Scanner) (*domain.Product, error) {
	var p domain.Product
	var description, imageURL sql.NullString
	var categoryID uuid.NullUUID
	if err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Price, &description, &imageURL, &categoryID, &p.IsAvailable, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = nullableString(description)
	p.ImageURL = nullableString(imageURL)
	p.CategoryID = nullableUUID(categoryID)
	return &p, nil
}

func scanCategory(s Scanner) (*domain.Category, error) {
	var c domain.Category
	var description sql.NullString
	var parentID uuid.NullUUID
	if err := s.Scan(&c.ID, &c.Name, &c.Slug, &description, &parentID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = nullableString(description)
	c.ParentID = nullableUUID(parentID)
	return &c, nil
}

func scanOrder(s Scanner) (*domain.Order, error) {
	var o domain.Order
	var address []byte
	var notes sql.NullString
	if err := s.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalPrice, &o.DeliveryMethod, &address, &notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if address != nil {
		o.DeliveryAddress = address
	}
	o.DeliveryNotes = nullableString(notes)
	return &o, nil
}

func scanOrderItem(s Scanner) (*domain.OrderItem, error) {
	var i domain.OrderItem
	var notes sql.NullString
	if err := s.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.Price, &notes, &i.CreatedAt); err != nil {
		return nil, err
	}
	i.Notes = nullableString(notes)
	return &i, nil
}

func scanMedia(s Scanner) (*domain.Media, error) {
	var m domain.Media
	var metadata []byte
	if err := s.Scan(&m.ID, &m.Name, &m.FilePath, &m.MimeType, &m.Size, &m.UserID, &metadata, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if metadata != nil {
		m.Metadata = metadata
	}
	return &m, nil
}

func scanHealthCheck(s Scanner) (*domain.HealthCheck, error) {
	var h domain.HealthCheck
	if err := s.Scan(&h.ID, &h.Status, &h.CreatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullableUUID(v uuid.NullUUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	return &v.UUID
}

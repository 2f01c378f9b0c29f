package support

import "time"

// Interaction tracks how often a user asked a question with the same fingerprint.
type Interaction struct {
	ID           string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string `gorm:"type:varchar(64);index;not null" json:"user_id"`
	QuestionText string `gorm:"type:text;not null" json:"question_text"`
	// QuestionKey is QuestionText lowercased in Go, so lookups do not depend on
	// the database's LOWER, which is ASCII-only on sqlite.
	QuestionKey     string    `gorm:"type:text" json:"-"`
	RepetitionCount int       `gorm:"not null;default:1" json:"repetition_count"`
	LastAsked       time.Time `gorm:"index" json:"last_asked"`
	Summary         string    `gorm:"type:varchar(255)" json:"summary"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Interaction) TableName() string { return "user_interactions" }

type HandledBy string

const (
	HandledByChatbot HandledBy = "chatbot"
	HandledByAgent   HandledBy = "agent"
)

type ChatbotLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(64);index:idx_chatbot_logs_user_created,priority:1;not null" json:"user_id"`
	TicketID  *string   `gorm:"type:varchar(26);index" json:"ticket_id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Response  *string   `gorm:"type:text" json:"response"`
	HandledBy HandledBy `gorm:"type:varchar(16);not null" json:"handled_by"`
	CreatedAt time.Time `gorm:"index:idx_chatbot_logs_user_created,priority:2" json:"created_at"`
}

func (ChatbotLog) TableName() string { return "chatbot_logs" }

type TicketStatus string

const (
	TicketOpen    TicketStatus = "open"
	TicketPending TicketStatus = "pending"
	TicketClosed  TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketPending, TicketClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID        string       `gorm:"primaryKey;size:26" json:"id"` // ULID length
	UserID    string       `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Subject   string       `gorm:"type:varchar(255);not null" json:"subject"`
	Message   string       `gorm:"type:text;not null" json:"message"`
	Status    TicketStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	Priority  Priority     `gorm:"type:varchar(16);not null" json:"priority"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }

type Product struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Product) TableName() string { return "products" }

type Order struct {
	ID        uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string           `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Status    string           `gorm:"type:varchar(32)" json:"status"`
	Total     float64          `json:"total"`
	Items     []OrderItem      `gorm:"foreignKey:OrderID" json:"order_items"`
	Shipping  []ShippingDetail `gorm:"foreignKey:OrderID" json:"shipping_details"`
	CreatedAt time.Time        `json:"created_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   uint64  `gorm:"index;not null" json:"order_id"`
	ProductID uint64  `gorm:"index" json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func (OrderItem) TableName() string { return "order_items" }

type ShippingDetail struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint64     `gorm:"index;not null" json:"order_id"`
	Carrier        string     `gorm:"type:varchar(64)" json:"carrier"`
	TrackingNumber string     `gorm:"type:varchar(128)" json:"tracking_number"`
	Status         string     `gorm:"type:varchar(32)" json:"status"`
	ShippedAt      *time.Time `json:"shipped_at"`
}

func (ShippingDetail) TableName() string { return "shipping_details" }

// Models lists every table owned by this package, for AutoMigrate.
func Models() []any {
	return []any{
		&Interaction{}, &ChatbotLog{}, &Ticket{},
		&Product{}, &Order{}, &OrderItem{}, &ShippingDetail{},
	}
}

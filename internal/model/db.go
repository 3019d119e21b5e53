package model

import "time"

type Order struct {
	TransactionID string `gorm:"primaryKey;size:64;not null"` // locally generated, stable
	POSOrderID    string `gorm:"size:64;index"`               // set at most once, by whichever path creates the POS order
	MerchantID    string `gorm:"size:64;index;not null"`
	Amount        int64  `gorm:"not null"` // minor currency units
	Currency      string `gorm:"size:8;not null"`

	CustomerName  string `gorm:"size:128"`
	CustomerEmail string `gorm:"size:128"`
	PickupTime    string `gorm:"size:64"`
	UserID        string `gorm:"size:64;index"`

	PaymentMethod      PaymentMethod `gorm:"size:32;not null"`
	PaymentProviderRef string        `gorm:"size:128;index"` // provider authorization / charge id
	PaymentStatus      string        `gorm:"size:32"`        // provider-reported sub-state, informational

	Status      OrderStatus `gorm:"size:32;index;not null"`
	FailureNote string      `gorm:"size:256"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.transaction_id
	TransactionID string `gorm:"size:64;index;not null"`
	Name          string `gorm:"size:128;not null"`
	Quantity      int32  `gorm:"not null"`
	UnitPrice     int64  `gorm:"not null"`
	Customization string `gorm:"size:256"`
	Size          string `gorm:"size:64"`

	CreatedAt time.Time
}

type MerchantCredential struct {
	MerchantID  string `gorm:"primaryKey;size:64;not null"`
	POSType     string `gorm:"size:32;not null"` // square | clover
	AccessToken string `gorm:"size:256;not null"`
	// Cached on first resolve; read-only afterwards.
	LocationID string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompletionTask is the durable record behind the delayed capture: a worker
// polls for due SCHEDULED tasks, so pending captures survive restarts.
type CompletionTask struct {
	TransactionID string    `gorm:"primaryKey;size:64;not null"`
	ScheduledFor  time.Time `gorm:"index;not null"`
	Status        string    `gorm:"size:32;index;not null"` // SCHEDULED, COMPLETED, FAILED
	ErrorDetail   string    `gorm:"size:256"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	TaskScheduled = "SCHEDULED"
	TaskCompleted = "COMPLETED"
	TaskFailed    = "FAILED"
)

type UserDevice struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      string `gorm:"index;not null"`
	DeviceToken string `gorm:"size:256;uniqueIndex;not null"`
	Platform    string `gorm:"size:16"` // ios | android

	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

package model

import "time"

// Assignment is one entry of the movement history: a product handed to,
// returned by, written off for or lent to a user.
type Assignment struct {
	ID              int64        `db:"historico_id" json:"id"`
	ProductID       int64        `db:"producto_id" json:"product_id"`
	ProductName     string       `db:"nombre_producto" json:"product"`
	UserID          int64        `db:"usuario_id" json:"user_id"`
	UserName        string       `db:"nombre_asignado" json:"assignee"`
	MovementTypeID  int64        `db:"tipo_movimiento_id" json:"movement_type_id"`
	MovementName    string       `db:"nombre_movimiento" json:"movement"`
	MovementKind    MovementKind `db:"clase" json:"kind"`
	ResponsibleID   int64        `db:"responsable_id" json:"responsible_id"`
	ResponsibleName string       `db:"nombre_responsable" json:"responsible"`
	AssignedAt      time.Time    `db:"fecha_asignacion" json:"assigned_at"`
	ReturnedAt      *time.Time   `db:"fecha_devolucion" json:"returned_at,omitempty"`
	Comment         string       `db:"comentarios" json:"comment,omitempty"`
}

// MovementInput is the request to record a movement.
type MovementInput struct {
	ProductID      int64
	UserID         int64
	MovementTypeID int64
	Comment        string
}

// Shipment moves stock from the warehouse to a store.
type Shipment struct {
	ID          int64     `db:"envio_id" json:"id"`
	ProductID   int64     `db:"producto_id" json:"product_id"`
	ProductName string    `db:"nombre_producto" json:"product"`
	StoreID     int64     `db:"tienda_id" json:"store_id"`
	StoreName   string    `db:"nombre_tienda" json:"store"`
	Quantity    int       `db:"cantidad_enviada" json:"quantity"`
	UserID      int64     `db:"usuario_id" json:"user_id"`
	ShippedAt   time.Time `db:"fecha_envio" json:"shipped_at"`
}

// Withdrawal statuses.
const (
	WithdrawalPending   = "Pendiente"
	WithdrawalCompleted = "Completado"
)

// Withdrawal returns stock from a store to the warehouse. Stock is only
// credited when the withdrawal is confirmed.
type Withdrawal struct {
	ID            int64      `db:"retiro_id" json:"id"`
	ProductID     int64      `db:"producto_id" json:"product_id"`
	ProductName   string     `db:"nombre_producto" json:"product"`
	StoreID       int64      `db:"tienda_id" json:"store_id"`
	StoreName     string     `db:"nombre_tienda" json:"store"`
	Quantity      int        `db:"cantidad_retirada" json:"quantity"`
	Status        string     `db:"estado" json:"status"`
	RequesterID   int64      `db:"usuario_solicitante_id" json:"requester_id"`
	RequesterName string     `db:"nombre_solicitante" json:"requester"`
	ReceiverID    *int64     `db:"usuario_receptor_id" json:"receiver_id,omitempty"`
	RequestedAt   time.Time  `db:"fecha_solicitud" json:"requested_at"`
	ReceivedAt    *time.Time `db:"fecha_recepcion" json:"received_at,omitempty"`
}

package model

import "time"

// Maintenance is a repair ticket for a product assigned to a technician.
type Maintenance struct {
	ID             int64      `db:"mantenimiento_id" json:"id"`
	ProductID      int64      `db:"producto_id" json:"product_id"`
	ProductName    string     `db:"nombre_producto" json:"product"`
	Serial         *string    `db:"numero_serie" json:"serial,omitempty"`
	TechnicianID   int64      `db:"tecnico_id" json:"technician_id"`
	TechnicianName string     `db:"nombre_tecnico" json:"technician"`
	Description    string     `db:"descripcion" json:"description"`
	StartedAt      time.Time  `db:"fecha_inicio" json:"started_at"`
	FinishedAt     *time.Time `db:"fecha_fin" json:"finished_at,omitempty"`
}

// Open reports whether the ticket has not been finished.
func (m Maintenance) Open() bool {
	return m.FinishedAt == nil
}

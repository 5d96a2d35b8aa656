package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the full database schema. Table and column names follow the
// Spanish naming of the deployed database so existing data files keep working.
const schema = `
CREATE TABLE IF NOT EXISTS roles (
    id_rol     INTEGER PRIMARY KEY,
    nombre_rol TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS areas (
    area_id     INTEGER PRIMARY KEY,
    nombre_area TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tiendas (
    tienda_id     INTEGER PRIMARY KEY,
    nombre_tienda TEXT NOT NULL UNIQUE,
    direccion     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS personas (
    rut            TEXT PRIMARY KEY,
    dv             TEXT NOT NULL DEFAULT '',
    primer_nombre  TEXT NOT NULL,
    segundo_nombre TEXT NOT NULL DEFAULT '',
    apellido_pat   TEXT NOT NULL,
    apellido_mat   TEXT NOT NULL DEFAULT '',
    telefono       TEXT NOT NULL DEFAULT '',
    correo         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS usuarios (
    usuario_id     INTEGER PRIMARY KEY,
    nombre_usuario TEXT NOT NULL UNIQUE,
    password       TEXT NOT NULL,
    id_rol         INTEGER REFERENCES roles(id_rol),
    activo         INTEGER NOT NULL DEFAULT 1,
    persona_rut    TEXT NOT NULL REFERENCES personas(rut) ON DELETE CASCADE,
    area_id        INTEGER REFERENCES areas(area_id),
    tienda_id      INTEGER REFERENCES tiendas(tienda_id),
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS proveedores (
    proveedor_id INTEGER PRIMARY KEY,
    nombre       TEXT NOT NULL UNIQUE,
    contacto     TEXT NOT NULL DEFAULT '',
    telefono     TEXT NOT NULL DEFAULT '',
    email        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tipos_producto (
    tipo_producto_id INTEGER PRIMARY KEY,
    nombre_producto  TEXT NOT NULL UNIQUE,
    tipo_producto    TEXT NOT NULL DEFAULT 'Activo Fijo'
);

CREATE TABLE IF NOT EXISTS estados_equipo (
    estado_equipo_id INTEGER PRIMARY KEY,
    nombre           TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS productos (
    producto_id      INTEGER PRIMARY KEY,
    nombre           TEXT NOT NULL,
    tipo_producto_id INTEGER REFERENCES tipos_producto(tipo_producto_id),
    proveedor_id     INTEGER REFERENCES proveedores(proveedor_id),
    numero_serie     TEXT UNIQUE,
    stock_actual     INTEGER NOT NULL DEFAULT 0 CHECK (stock_actual >= 0),
    estado_equipo_id INTEGER REFERENCES estados_equipo(estado_equipo_id),
    ubicacion_fisica TEXT NOT NULL DEFAULT '',
    valor_unitario   TEXT NOT NULL DEFAULT '0',
    activo           INTEGER NOT NULL DEFAULT 1,
    imagen           BLOB,
    imagen_mime      TEXT,
    fecha_registro   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tipos_movimiento (
    tipo_movimiento_id INTEGER PRIMARY KEY,
    nombre             TEXT NOT NULL UNIQUE,
    clase              TEXT NOT NULL DEFAULT 'neutral' CHECK (clase IN ('debit', 'credit', 'neutral'))
);

CREATE TABLE IF NOT EXISTS historico_asignaciones (
    historico_id       INTEGER PRIMARY KEY,
    producto_id        INTEGER NOT NULL REFERENCES productos(producto_id),
    usuario_id         INTEGER NOT NULL REFERENCES usuarios(usuario_id),
    tipo_movimiento_id INTEGER NOT NULL REFERENCES tipos_movimiento(tipo_movimiento_id),
    responsable_id     INTEGER NOT NULL REFERENCES usuarios(usuario_id),
    fecha_asignacion   DATETIME NOT NULL,
    fecha_devolucion   DATETIME,
    comentarios        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_historico_abiertos
    ON historico_asignaciones(producto_id) WHERE fecha_devolucion IS NULL;

CREATE TABLE IF NOT EXISTS envios_tienda (
    envio_id         INTEGER PRIMARY KEY,
    producto_id      INTEGER NOT NULL REFERENCES productos(producto_id),
    tienda_id        INTEGER NOT NULL REFERENCES tiendas(tienda_id),
    cantidad_enviada INTEGER NOT NULL CHECK (cantidad_enviada > 0),
    usuario_id       INTEGER NOT NULL REFERENCES usuarios(usuario_id),
    fecha_envio      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_envios_producto_tienda ON envios_tienda(producto_id, tienda_id);

CREATE TABLE IF NOT EXISTS retiros_tienda (
    retiro_id              INTEGER PRIMARY KEY,
    producto_id            INTEGER NOT NULL REFERENCES productos(producto_id),
    tienda_id              INTEGER NOT NULL REFERENCES tiendas(tienda_id),
    cantidad_retirada      INTEGER NOT NULL CHECK (cantidad_retirada > 0),
    estado                 TEXT NOT NULL DEFAULT 'Pendiente' CHECK (estado IN ('Pendiente', 'Completado')),
    usuario_solicitante_id INTEGER NOT NULL REFERENCES usuarios(usuario_id),
    usuario_receptor_id    INTEGER REFERENCES usuarios(usuario_id),
    fecha_solicitud        DATETIME NOT NULL,
    fecha_recepcion        DATETIME
);

CREATE INDEX IF NOT EXISTS idx_retiros_producto_tienda ON retiros_tienda(producto_id, tienda_id);

CREATE TABLE IF NOT EXISTS mantenimientos (
    mantenimiento_id INTEGER PRIMARY KEY,
    producto_id      INTEGER NOT NULL REFERENCES productos(producto_id),
    tecnico_id       INTEGER NOT NULL REFERENCES usuarios(usuario_id),
    descripcion      TEXT NOT NULL DEFAULT '',
    fecha_inicio     DATETIME NOT NULL,
    fecha_fin        DATETIME
);

CREATE TABLE IF NOT EXISTS nfc_readings (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    device_info    TEXT NOT NULL DEFAULT '{}',
    nfc_data       TEXT NOT NULL DEFAULT '{}',
    scan_type      TEXT NOT NULL DEFAULT 'unknown',
    timestamp      TEXT NOT NULL,
    formatted_time TEXT NOT NULL,
    ip_address     TEXT NOT NULL DEFAULT '',
    user_agent     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_nfc_readings_timestamp ON nfc_readings(timestamp);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables if they don't exist and applies pending
// column migrations. Safe to call on every startup.
func EnsureSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := migrate(db); err != nil {
		return err
	}
	return nil
}

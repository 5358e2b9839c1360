// Package store reads the device and cable feeds from the CRUD layer's
// Postgres database. This core never writes; registration forms live in the
// external application.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tracenet/core-go/internal/topology"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const listDevices = `-- name: ListDevices :many
SELECT id,
       name,
       device_type,
       status,
       COALESCE(ip_address, ''),
       rack_id
FROM devices
ORDER BY id
`

// ListDevices returns the full device feed, replace-wholesale.
func (q *Queries) ListDevices(ctx context.Context) ([]topology.Device, error) {
	rows, err := q.db.Query(ctx, listDevices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topology.Device
	for rows.Next() {
		var d topology.Device
		var deviceType, status string
		if err := rows.Scan(&d.ID, &d.Name, &deviceType, &status, &d.IP, &d.RackID); err != nil {
			return nil, err
		}
		d.Type = topology.DeviceType(deviceType)
		d.Status = topology.Status(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

const listCables = `-- name: ListCables :many
SELECT id,
       from_device_id,
       to_device_id,
       COALESCE(description, '')
FROM cables
ORDER BY id
`

// ListCables returns the full cable feed, replace-wholesale.
func (q *Queries) ListCables(ctx context.Context) ([]topology.Cable, error) {
	rows, err := q.db.Query(ctx, listCables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topology.Cable
	for rows.Next() {
		var c topology.Cable
		if err := rows.Scan(&c.ID, &c.FromID, &c.ToID, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const getDevice = `-- name: GetDevice :one
SELECT id,
       name,
       device_type,
       status,
       COALESCE(ip_address, ''),
       rack_id
FROM devices
WHERE id = $1
`

// GetDevice fetches a single device, pgx.ErrNoRows when absent.
func (q *Queries) GetDevice(ctx context.Context, id int64) (topology.Device, error) {
	row := q.db.QueryRow(ctx, getDevice, id)
	var d topology.Device
	var deviceType, status string
	err := row.Scan(&d.ID, &d.Name, &deviceType, &status, &d.IP, &d.RackID)
	if err != nil {
		return topology.Device{}, err
	}
	d.Type = topology.DeviceType(deviceType)
	d.Status = topology.Status(status)
	return d, nil
}

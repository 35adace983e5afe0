package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
)

const propertyColumns = `id, title, description, address, location, price, currency, category, type,
	size, bedrooms, bathrooms, amenities, images, status, rejection_reason,
	is_featured, is_premium, is_gold_card, contact_details, owner_id, agent_id, agency_id,
	created_at, updated_at`

func scanProperty(row pgx.Row) (*property.Property, error) {
	var p property.Property
	var addressJSON, contactJSON []byte
	var locationJSON, amenitiesJSON, imagesJSON []byte
	var agentID, agencyID *string

	err := row.Scan(&p.ID, &p.Title, &p.Description, &addressJSON, &locationJSON,
		&p.Price, &p.Currency, &p.Category, &p.Type,
		&p.Size, &p.Bedrooms, &p.Bathrooms, &amenitiesJSON, &imagesJSON,
		&p.Status, &p.RejectionReason,
		&p.IsFeatured, &p.IsPremium, &p.IsGoldCard, &contactJSON,
		&p.OwnerID, &agentID, &agencyID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(addressJSON, &p.Address); err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if err := json.Unmarshal(contactJSON, &p.ContactDetails); err != nil {
		return nil, fmt.Errorf("decode contact details: %w", err)
	}
	if locationJSON != nil {
		if err := json.Unmarshal(locationJSON, &p.Location); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
	}
	if amenitiesJSON != nil {
		if err := json.Unmarshal(amenitiesJSON, &p.Amenities); err != nil {
			return nil, fmt.Errorf("decode amenities: %w", err)
		}
	}
	if imagesJSON != nil {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if agentID != nil {
		p.AgentID = *agentID
	}
	if agencyID != nil {
		p.AgencyID = *agencyID
	}
	return &p, nil
}

func propertyArgs(p *property.Property) ([]any, error) {
	addressJSON, err := json.Marshal(p.Address)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	contactJSON, err := json.Marshal(p.ContactDetails)
	if err != nil {
		return nil, fmt.Errorf("encode contact details: %w", err)
	}
	var locationJSON, amenitiesJSON, imagesJSON []byte
	if p.Location != nil {
		if locationJSON, err = json.Marshal(p.Location); err != nil {
			return nil, fmt.Errorf("encode location: %w", err)
		}
	}
	if p.Amenities != nil {
		if amenitiesJSON, err = json.Marshal(p.Amenities); err != nil {
			return nil, fmt.Errorf("encode amenities: %w", err)
		}
	}
	if p.Images != nil {
		if imagesJSON, err = json.Marshal(p.Images); err != nil {
			return nil, fmt.Errorf("encode images: %w", err)
		}
	}
	var agentID, agencyID *string
	if p.AgentID != "" {
		agentID = &p.AgentID
	}
	if p.AgencyID != "" {
		agencyID = &p.AgencyID
	}
	return []any{
		p.ID, p.Title, p.Description, addressJSON, locationJSON,
		p.Price, p.Currency, p.Category, p.Type,
		p.Size, p.Bedrooms, p.Bathrooms, amenitiesJSON, imagesJSON,
		p.Status, p.RejectionReason,
		p.IsFeatured, p.IsPremium, p.IsGoldCard, contactJSON,
		p.OwnerID, agentID, agencyID,
	}, nil
}

// CreateProperty persists the listing and, when a reservation paid for
// it, flips that reservation to committed in the same transaction. A
// crash between reserve and this call leaves the reservation pending for
// the reconciler to compensate.
func (s *Store) CreateProperty(ctx context.Context, p *property.Property, reservationID string) error {
	args, err := propertyArgs(p)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create property: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO properties (`+propertyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23, now(), now())`, args...)
	if err != nil {
		return fmt.Errorf("create property: %w", err)
	}

	if reservationID != "" {
		tag, err := tx.Exec(ctx,
			`UPDATE slot_reservations SET state = $2, property_id = $3
			 WHERE id = $1 AND state = $4`,
			reservationID, database.ReservationCommitted, p.ID, database.ReservationPending)
		if err != nil {
			return fmt.Errorf("commit reservation %s: %w", reservationID, err)
		}
		if tag.RowsAffected() == 0 {
			// The reconciler already compensated this reservation; the
			// slot no longer backs this listing.
			return fmt.Errorf("commit reservation %s: %w", reservationID, domain.ErrConflict)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("create property: commit: %w", err)
	}
	return nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*property.Property, error) {
	p, err := scanProperty(s.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get property %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListProperties(ctx context.Context, f database.PropertyFilter) ([]property.Property, error) {
	var where []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if f.Category != "" {
		add("category = ?", f.Category)
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.City != "" {
		add("address->>'city' = ?", f.City)
	}
	if f.OwnerID != "" {
		add("owner_id = ?", f.OwnerID)
	}
	if f.Featured != nil {
		add("is_featured = ?", *f.Featured)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		add("status = ANY(?)", statuses)
	}

	q := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []property.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateProperty(ctx context.Context, p *property.Property) error {
	args, err := propertyArgs(p)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE properties SET
		   title = $2, description = $3, address = $4, location = $5, price = $6,
		   currency = $7, category = $8, type = $9, size = $10, bedrooms = $11,
		   bathrooms = $12, amenities = $13, images = $14, status = $15,
		   rejection_reason = $16, is_featured = $17, is_premium = $18,
		   is_gold_card = $19, contact_details = $20, owner_id = $21,
		   agent_id = $22, agency_id = $23, updated_at = now()
		 WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update property %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update property %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdatePropertyStatus writes only the status and rejection reason.
// Concurrent approve/reject on the same listing resolve last-writer-wins
// on these two fields with nothing else contended.
func (s *Store) UpdatePropertyStatus(ctx context.Context, id string, status property.Status, rejectionReason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE properties SET status = $2, rejection_reason = $3, updated_at = now()
		 WHERE id = $1`, id, status, rejectionReason)
	if err != nil {
		return fmt.Errorf("update property status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update property status %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DeletePropertyAndRelease removes the listing and releases its slot and
// featured slot in one transaction. The decrement only happens when the
// committed reservation row is flipped to released, so a second delete of
// the same listing cannot drive listings_used below its true value.
func (s *Store) DeletePropertyAndRelease(ctx context.Context, p *property.Property, subscriptionID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete property: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM properties WHERE id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("delete property %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete property %s: %w", p.ID, domain.ErrNotFound)
	}

	_, err = tx.Exec(ctx, `DELETE FROM featured_listings WHERE property_id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("release featured for %s: %w", p.ID, err)
	}

	if subscriptionID != "" {
		released, err := tx.Exec(ctx,
			`UPDATE slot_reservations SET state = $2
			 WHERE property_id = $1 AND state = $3`,
			p.ID, database.ReservationReleased, database.ReservationCommitted)
		if err != nil {
			return fmt.Errorf("release reservation for %s: %w", p.ID, err)
		}
		if released.RowsAffected() > 0 {
			_, err = tx.Exec(ctx,
				`UPDATE subscriptions
				 SET listings_used = GREATEST(listings_used - 1, 0), updated_at = now()
				 WHERE id = $1`, subscriptionID)
			if err != nil {
				return fmt.Errorf("release slot %s: %w", subscriptionID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete property: commit: %w", err)
	}
	return nil
}

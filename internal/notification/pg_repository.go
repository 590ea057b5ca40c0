package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Insert(ctx context.Context, n *Notification) error {
	id := uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, doctor_id, user_id, title, message, appointment_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, now())
	`, id, n.DoctorID, n.UserID, n.Title, n.Message, n.AppointmentID)
	return err
}

func (r *PgRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PgRepository) MarkAllReadForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE doctor_id = $1
		  AND read = FALSE
	`, doctorID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgRepository) MarkAllReadForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1
		  AND read = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

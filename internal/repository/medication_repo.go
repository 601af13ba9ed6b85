package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// MedicationRepository handles database operations for medications and
// their scheduled doses.
type MedicationRepository struct {
	db *database.DB
}

// NewMedicationRepository creates a new medication repository
func NewMedicationRepository(db *database.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

// CreateMedication creates a medication for a patient
func (r *MedicationRepository) CreateMedication(ctx context.Context, med *models.Medication) (*models.Medication, error) {
	query := `
		INSERT INTO medications (patient_id, name, strength, form, instructions, warnings)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		med.PatientID, med.Name, med.Strength, med.Form, med.Instructions, med.Warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	return r.GetMedicationByID(ctx, id)
}

// GetMedicationByID retrieves a medication with its doses ordered by
// scheduled time, or nil if not found.
func (r *MedicationRepository) GetMedicationByID(ctx context.Context, id int64) (*models.Medication, error) {
	query := `
		SELECT id, patient_id, name, strength, form, instructions, warnings, created_at, updated_at
		FROM medications WHERE id = ?
	`
	med := &models.Medication{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&med.ID, &med.PatientID, &med.Name, &med.Strength, &med.Form,
		&med.Instructions, &med.Warnings, &med.CreatedAt, &med.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	doses, err := r.getDosesForMedication(ctx, med.ID)
	if err != nil {
		return nil, err
	}
	med.Doses = doses

	return med, nil
}

// GetPatientMedications retrieves all medications for a patient with
// their doses attached.
func (r *MedicationRepository) GetPatientMedications(ctx context.Context, patientID int64) ([]models.Medication, error) {
	query := `
		SELECT id, patient_id, name, strength, form, instructions, warnings, created_at, updated_at
		FROM medications
		WHERE patient_id = ?
		ORDER BY name ASC
	`
	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	var meds []models.Medication
	for rows.Next() {
		var med models.Medication
		err := rows.Scan(
			&med.ID, &med.PatientID, &med.Name, &med.Strength, &med.Form,
			&med.Instructions, &med.Warnings, &med.CreatedAt, &med.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range meds {
		doses, err := r.getDosesForMedication(ctx, meds[i].ID)
		if err != nil {
			return nil, err
		}
		meds[i].Doses = doses
	}

	return meds, nil
}

// DeleteMedication removes a medication and (via cascade) its doses
func (r *MedicationRepository) DeleteMedication(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM medications WHERE id = ?`, id)
	return err
}

// CreateDose schedules a single dose for a medication
func (r *MedicationRepository) CreateDose(ctx context.Context, medicationID int64, scheduledAt time.Time) (*models.Dose, error) {
	bucket := models.TimeOfDayBucket(scheduledAt)
	query := `
		INSERT INTO doses (medication_id, scheduled_at, bucket, status)
		VALUES (?, ?, ?, 'pending')
	`
	id, err := r.db.ExecReturningID(ctx, query, medicationID, scheduledAt, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create dose: %w", err)
	}
	return &models.Dose{
		ID:           id,
		MedicationID: medicationID,
		ScheduledAt:  scheduledAt,
		Bucket:       bucket,
		Status:       models.DoseStatusPending,
	}, nil
}

// GetDoseByID retrieves a dose together with its medication's patient
// id, or nil if not found. The patient id lets callers authorize the
// operation without a second query.
func (r *MedicationRepository) GetDoseByID(ctx context.Context, doseID int64) (*models.Dose, int64, error) {
	query := `
		SELECT d.id, d.medication_id, d.scheduled_at, d.bucket, d.status, d.taken_at, d.snooze_until,
		       m.patient_id
		FROM doses d
		INNER JOIN medications m ON d.medication_id = m.id
		WHERE d.id = ?
	`
	dose := &models.Dose{}
	var patientID int64
	var takenAt, snoozeUntil sql.NullTime

	err := r.db.QueryRow(ctx, query, doseID).Scan(
		&dose.ID, &dose.MedicationID, &dose.ScheduledAt, &dose.Bucket,
		&dose.Status, &takenAt, &snoozeUntil, &patientID,
	)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get dose: %w", err)
	}

	if takenAt.Valid {
		dose.TakenAt = &takenAt.Time
	}
	if snoozeUntil.Valid {
		dose.SnoozeUntil = &snoozeUntil.Time
	}

	return dose, patientID, nil
}

// UpdateDoseStatus moves a dose to a new status, guarding the
// transition at the store level: the update only applies when the row
// is still in the expected prior status.
func (r *MedicationRepository) UpdateDoseStatus(ctx context.Context, doseID int64, from, to models.DoseStatus, takenAt, snoozeUntil *time.Time) (bool, error) {
	query := `
		UPDATE doses SET status = ?, taken_at = ?, snooze_until = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.Exec(ctx, query, string(to), takenAt, snoozeUntil, doseID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update dose status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkOverdueDosesMissed resolves pending and lapsed snoozed doses
// whose scheduled day has passed. Returns the number of doses marked.
func (r *MedicationRepository) MarkOverdueDosesMissed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE doses SET status = 'missed'
		WHERE scheduled_at < ?
		  AND (status = 'pending' OR (status = 'snoozed' AND snooze_until < ?))
	`
	result, err := r.db.Exec(ctx, query, cutoff, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue doses: %w", err)
	}
	return result.RowsAffected()
}

// GetResolvedDoses retrieves all doses for a patient scheduled at or
// after the given time, ordered by scheduled time. Used for adherence
// history derivation.
func (r *MedicationRepository) GetResolvedDoses(ctx context.Context, patientID int64, from time.Time) ([]models.Dose, error) {
	query := `
		SELECT d.id, d.medication_id, d.scheduled_at, d.bucket, d.status, d.taken_at, d.snooze_until
		FROM doses d
		INNER JOIN medications m ON d.medication_id = m.id
		WHERE m.patient_id = ? AND d.scheduled_at >= ?
		ORDER BY d.scheduled_at ASC
	`
	rows, err := r.db.Query(ctx, query, patientID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query doses: %w", err)
	}
	defer rows.Close()

	var doses []models.Dose
	for rows.Next() {
		var dose models.Dose
		var takenAt, snoozeUntil sql.NullTime
		err := rows.Scan(
			&dose.ID, &dose.MedicationID, &dose.ScheduledAt, &dose.Bucket,
			&dose.Status, &takenAt, &snoozeUntil,
		)
		if err != nil {
			return nil, err
		}
		if takenAt.Valid {
			dose.TakenAt = &takenAt.Time
		}
		if snoozeUntil.Valid {
			dose.SnoozeUntil = &snoozeUntil.Time
		}
		doses = append(doses, dose)
	}

	return doses, rows.Err()
}

func (r *MedicationRepository) getDosesForMedication(ctx context.Context, medicationID int64) ([]models.Dose, error) {
	query := `
		SELECT id, medication_id, scheduled_at, bucket, status, taken_at, snooze_until
		FROM doses
		WHERE medication_id = ?
		ORDER BY scheduled_at ASC
	`
	rows, err := r.db.Query(ctx, query, medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query doses: %w", err)
	}
	defer rows.Close()

	var doses []models.Dose
	for rows.Next() {
		var dose models.Dose
		var takenAt, snoozeUntil sql.NullTime
		err := rows.Scan(
			&dose.ID, &dose.MedicationID, &dose.ScheduledAt, &dose.Bucket,
			&dose.Status, &takenAt, &snoozeUntil,
		)
		if err != nil {
			return nil, err
		}
		if takenAt.Valid {
			dose.TakenAt = &takenAt.Time
		}
		if snoozeUntil.Valid {
			dose.SnoozeUntil = &snoozeUntil.Time
		}
		doses = append(doses, dose)
	}

	return doses, rows.Err()
}

package services

import (
	"database/sql"
	"errors"
	"fmt"

	"courtbook/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Read-side queries over the platform's collections. The reservation engine
// only ever reads facilities, courts and hours; bookings are the one table
// it writes, and those writes go through BookingService.

func findFacility(app core.App, id string) (*models.Facility, error) {
	var rows []models.Facility
	err := app.DB().
		Select("id", "tenant_id", "name", "timezone", "cancellation_hours",
			"slot_buffer_minutes", "min_notice_minutes", "max_advance_days", "status").
		From("facilities").
		Where(dbx.HashExp{"id": id}).
		Limit(1).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("load facility %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return &rows[0], nil
}

func findCourt(app core.App, id string) (*models.Court, error) {
	var rows []models.Court
	err := app.DB().
		Select("id", "tenant_id", "facility_id", "name", "sport",
			"base_price_per_hour", "allowed_durations", "status").
		From("courts").
		Where(dbx.HashExp{"id": id}).
		Limit(1).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("load court %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return &rows[0], nil
}

func listCourts(app core.App, facilityID string) ([]models.Court, error) {
	var rows []models.Court
	err := app.DB().
		Select("id", "tenant_id", "facility_id", "name", "sport",
			"base_price_per_hour", "allowed_durations", "status").
		From("courts").
		Where(dbx.HashExp{"facility_id": facilityID}).
		OrderBy("name ASC").
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list courts for facility %s: %w", facilityID, err)
	}
	return rows, nil
}

func findWeeklyHours(app core.App, facilityID string, weekday int) (*models.OperatingHours, error) {
	var rows []models.OperatingHours
	err := app.DB().
		Select("id", "facility_id", "weekday", "open_time", "close_time", "is_closed").
		From("operating_hours").
		Where(dbx.HashExp{"facility_id": facilityID, "weekday": weekday}).
		Limit(1).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("load operating hours: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func findSpecialHours(app core.App, facilityID, date string) (*models.SpecialHours, error) {
	var rows []models.SpecialHours
	err := app.DB().
		Select("id", "facility_id", "date", "open_time", "close_time", "is_closed", "note").
		From("special_hours").
		Where(dbx.HashExp{"facility_id": facilityID, "date": date}).
		Limit(1).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("load special hours: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// listActiveBookings returns the day's non-cancelled bookings for one court.
// Cancelled bookings free their interval, everything else keeps it claimed.
func listActiveBookings(app core.App, courtID, date string) ([]models.Booking, error) {
	var rows []models.Booking
	err := app.DB().
		Select("id", "tenant_id", "facility_id", "court_id", "customer_id",
			"date", "start_time", "duration_minutes", "status", "price", "staff_booking").
		From("bookings").
		Where(dbx.And(
			dbx.HashExp{"court_id": courtID, "date": date},
			dbx.NewExp("status != {:cancelled}", dbx.Params{"cancelled": models.BookingStatusCancelled}),
		)).
		OrderBy("start_time ASC").
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list bookings for court %s on %s: %w", courtID, date, err)
	}
	return rows, nil
}

func listFacilityBookings(app core.App, facilityID, date string) ([]models.Booking, error) {
	var rows []models.Booking
	err := app.DB().
		Select("id", "tenant_id", "facility_id", "court_id", "customer_id",
			"date", "start_time", "duration_minutes", "status", "price", "staff_booking").
		From("bookings").
		Where(dbx.And(
			dbx.HashExp{"facility_id": facilityID, "date": date},
			dbx.NewExp("status != {:cancelled}", dbx.Params{"cancelled": models.BookingStatusCancelled}),
		)).
		OrderBy("court_id ASC", "start_time ASC").
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list bookings for facility %s on %s: %w", facilityID, date, err)
	}
	return rows, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// resolveFacilityWindow loads the facility's hours for a date and resolves
// the effective operating window. Shared by every service that validates a
// slot against the calendar.
func resolveFacilityWindow(app core.App, facility *models.Facility, date string) (DayWindow, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return DayWindow{}, err
	}

	weekly, err := findWeeklyHours(app, facility.ID, int(day.Weekday()))
	if err != nil {
		return DayWindow{}, err
	}
	special, err := findSpecialHours(app, facility.ID, date)
	if err != nil {
		return DayWindow{}, err
	}

	return ResolveDayWindow(weekly, special)
}

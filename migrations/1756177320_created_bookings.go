package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		tenants, err := app.FindCollectionByNameOrId("tenants")
		if err != nil {
			return err
		}
		facilities, err := app.FindCollectionByNameOrId("facilities")
		if err != nil {
			return err
		}
		courts, err := app.FindCollectionByNameOrId("courts")
		if err != nil {
			return err
		}

		customers := core.NewAuthCollection("customers")
		customers.Fields.Add(
			&core.TextField{Name: "name"},
			&core.TextField{Name: "phone"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		if err := app.Save(customers); err != nil {
			return err
		}

		bookings := core.NewBaseCollection("bookings")
		bookings.Fields.Add(
			&core.RelationField{Name: "tenant_id", Required: true, MaxSelect: 1, CollectionId: tenants.Id},
			&core.RelationField{Name: "facility_id", Required: true, MaxSelect: 1, CollectionId: facilities.Id},
			&core.RelationField{Name: "court_id", Required: true, MaxSelect: 1, CollectionId: courts.Id},
			&core.RelationField{Name: "customer_id", Required: true, MaxSelect: 1, CollectionId: customers.Id},
			&core.TextField{Name: "date", Required: true},
			&core.TextField{Name: "start_time", Required: true},
			&core.NumberField{Name: "duration_minutes", Required: true, OnlyInt: true},
			&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{
				"reserved", "paid", "confirmed", "completed", "cancelled", "no_show",
			}},
			&core.NumberField{Name: "price"},
			&core.NumberField{Name: "deposit_paid"},
			&core.NumberField{Name: "balance_paid"},
			&core.BoolField{Name: "staff_booking"},
			&core.DateField{Name: "confirmed_at"},
			&core.DateField{Name: "cancelled_at"},
			&core.TextField{Name: "cancellation_reason"},
			&core.DateField{Name: "no_show_marked_at"},
			&core.TextField{Name: "notes"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		bookings.AddIndex("idx_bookings_court_day", false, "court_id, date", "")
		bookings.AddIndex("idx_bookings_customer", false, "customer_id", "")
		return app.Save(bookings)
	}, func(app core.App) error {
		for _, name := range []string{"bookings", "customers"} {
			collection, err := app.FindCollectionByNameOrId(name)
			if err != nil {
				continue
			}
			if err := app.Delete(collection); err != nil {
				return err
			}
		}
		return nil
	})
}

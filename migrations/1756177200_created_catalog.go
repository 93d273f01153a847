package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		tenants := core.NewBaseCollection("tenants")
		tenants.Fields.Add(
			&core.TextField{Name: "name", Required: true},
			&core.TextField{Name: "slug"},
			&core.SelectField{Name: "status", MaxSelect: 1, Values: []string{"active", "suspended"}},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		if err := app.Save(tenants); err != nil {
			return err
		}

		facilities := core.NewBaseCollection("facilities")
		facilities.Fields.Add(
			&core.RelationField{Name: "tenant_id", Required: true, MaxSelect: 1, CollectionId: tenants.Id},
			&core.TextField{Name: "name", Required: true},
			&core.TextField{Name: "timezone"},
			&core.NumberField{Name: "cancellation_hours", OnlyInt: true},
			&core.NumberField{Name: "slot_buffer_minutes", OnlyInt: true},
			&core.NumberField{Name: "min_notice_minutes", OnlyInt: true},
			&core.NumberField{Name: "max_advance_days", OnlyInt: true},
			&core.SelectField{Name: "status", MaxSelect: 1, Values: []string{"active", "inactive"}},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		if err := app.Save(facilities); err != nil {
			return err
		}

		courts := core.NewBaseCollection("courts")
		courts.Fields.Add(
			&core.RelationField{Name: "tenant_id", Required: true, MaxSelect: 1, CollectionId: tenants.Id},
			&core.RelationField{Name: "facility_id", Required: true, MaxSelect: 1, CollectionId: facilities.Id},
			&core.TextField{Name: "name", Required: true},
			&core.TextField{Name: "sport"},
			&core.NumberField{Name: "base_price_per_hour"},
			&core.TextField{Name: "allowed_durations"},
			&core.SelectField{Name: "status", MaxSelect: 1, Values: []string{"active", "maintenance", "inactive"}},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		courts.AddIndex("idx_courts_facility", false, "facility_id", "")
		return app.Save(courts)
	}, func(app core.App) error {
		for _, name := range []string{"courts", "facilities", "tenants"} {
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

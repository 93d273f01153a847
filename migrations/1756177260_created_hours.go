package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		facilities, err := app.FindCollectionByNameOrId("facilities")
		if err != nil {
			return err
		}

		weekly := core.NewBaseCollection("operating_hours")
		weekly.Fields.Add(
			&core.RelationField{Name: "facility_id", Required: true, MaxSelect: 1, CollectionId: facilities.Id},
			&core.NumberField{Name: "weekday", OnlyInt: true},
			&core.TextField{Name: "open_time"},
			&core.TextField{Name: "close_time"},
			&core.BoolField{Name: "is_closed"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		weekly.AddIndex("idx_operating_hours_day", true, "facility_id, weekday", "")
		if err := app.Save(weekly); err != nil {
			return err
		}

		special := core.NewBaseCollection("special_hours")
		special.Fields.Add(
			&core.RelationField{Name: "facility_id", Required: true, MaxSelect: 1, CollectionId: facilities.Id},
			&core.TextField{Name: "date", Required: true},
			&core.TextField{Name: "open_time"},
			&core.TextField{Name: "close_time"},
			&core.BoolField{Name: "is_closed"},
			&core.TextField{Name: "note"},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)
		special.AddIndex("idx_special_hours_date", true, "facility_id, date", "")
		return app.Save(special)
	}, func(app core.App) error {
		for _, name := range []string{"special_hours", "operating_hours"} {
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

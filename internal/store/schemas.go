package store

import "giatla/backend/internal/persist"

// RegisterSchemas records the date-valued fields of every persisted record
// type, keyed by the schema names the collections load with.
func RegisterSchemas(r *persist.Reviver) {
	r.Register("loyalty_entry", persist.Schema{Dates: []string{"created_at"}})
	r.Register("interaction", persist.Schema{Dates: []string{"created_at"}})
	r.Register("user", persist.Schema{
		Dates:  []string{"created_at"},
		Nested: map[string]string{"loyalty_history": "loyalty_entry", "interaction_history": "interaction"},
	})
	r.Register("scan_entry", persist.Schema{Dates: []string{"timestamp"}})
	r.Register("order", persist.Schema{
		Dates:  []string{"received_at", "estimated_completion_time", "completed_at", "returned_at"},
		Nested: map[string]string{"scan_history": "scan_entry", "customer": "user"},
	})
	r.Register("inventory_history", persist.Schema{Dates: []string{"created_at"}})
	r.Register("inventory_item", persist.Schema{
		Dates:  []string{"updated_at"},
		Nested: map[string]string{"history": "inventory_history"},
	})
	r.Register("inventory_request", persist.Schema{Dates: []string{"created_at", "resolved_at"}})
	r.Register("opt_out_request", persist.Schema{Dates: []string{"requested_at", "resolved_at"}})
	r.Register("cancellation_request", persist.Schema{Dates: []string{"requested_at", "resolved_at"}})
	r.Register("promotion", persist.Schema{
		Dates: []string{"start_date", "end_date", "created_at"},
		Nested: map[string]string{
			"opt_out_requests":     "opt_out_request",
			"cancellation_request": "cancellation_request",
		},
	})
	r.Register("kpi", persist.Schema{Dates: []string{"period_start", "period_end", "calculated_at"}})
	r.Register("variable_cost", persist.Schema{Dates: []string{"incurred_at", "created_at"}})
	r.Register("fixed_cost", persist.Schema{Dates: []string{"updated_at"}})
	r.Register("fixed_cost_history", persist.Schema{
		Dates:  []string{"changed_at"},
		Nested: map[string]string{"previous_items": "fixed_cost"},
	})
	r.Register("service_rating", persist.Schema{Dates: []string{"created_at"}})
	r.Register("staff_rating", persist.Schema{Dates: []string{"created_at"}})
	r.Register("tip", persist.Schema{Dates: []string{"created_at"}})
	r.Register("notification", persist.Schema{Dates: []string{"created_at"}})
	r.Register("store_settings", persist.Schema{Dates: []string{"updated_at"}})
	r.Register("material_item", persist.Schema{Dates: []string{"created_at"}})
	r.Register("material_order", persist.Schema{Dates: []string{"created_at", "resolved_at", "received_at"}})
}

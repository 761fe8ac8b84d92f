package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"giatla/backend/internal/domain"
	"giatla/backend/internal/service"
)

type reasonBody struct {
	Reason string `json:"reason"`
}

type decisionBody struct {
	Approve bool `json:"approve"`
}

type statusBody struct {
	Status         domain.OrderStatus `json:"status"`
	PickupLocation string             `json:"pickup_location,omitempty"`
	Reason         string             `json:"reason,omitempty"`
}

type countBody struct {
	Count int `json:"count"`
}

func respond[T any](w http.ResponseWriter, status int, out T, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, status, out)
}

func noContent(w http.ResponseWriter, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// optionalJSON decodes a body when one was sent. Empty bodies leave dest
// untouched.
func optionalJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return readJSON(w, r, dest)
}

func (a *API) handleListStores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.ListStores(r.Context()))
}

func (a *API) handleRegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterCustomerRequest
	if !readJSON(w, r, &req) {
		return
	}
	out, err := a.service.RegisterCustomer(r.Context(), req)
	respond(w, http.StatusCreated, out, err)
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !readJSON(w, r, &req) {
		return
	}
	out, err := a.service.CreateOrder(r.Context(), req)
	respond(w, http.StatusCreated, out, err)
}

func (a *API) handleLookupOrders(w http.ResponseWriter, r *http.Request) {
	out, err := a.service.LookupOrdersByPhone(r.Context(), r.URL.Query().Get("phone"))
	respond(w, http.StatusOK, out, err)
}

func (a *API) handleAvailablePromotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.AvailablePromotions(r.Context(), r.URL.Query().Get("store_id")))
}

func (a *API) handleFindPromotion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := domain.PromotionQuery{
		Code:       chi.URLParam(r, "code"),
		StoreID:    q.Get("store_id"),
		Channel:    q.Get("channel"),
		CustomerID: q.Get("customer_id"),
	}
	if raw := q.Get("subtotal"); raw != "" {
		subtotal, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || subtotal < 0 {
			writeError(w, http.StatusBadRequest, errors.New("subtotal must be a non-negative integer"))
			return
		}
		query.Subtotal = subtotal
	}
	query.Items = queryItems(q.Get("service_ids"), q.Get("wash_method_ids"))
	p, ok := a.service.FindPromotionByCode(r.Context(), query)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no usable promotion %q", query.Code))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"promotion": p,
		"discount":  service.PromotionDiscount(p, query.Subtotal),
	})
}

// queryItems turns comma-separated service and wash method ids into order
// lines, one per pair, so line-level allow-lists can be checked.
func queryItems(serviceIDs string, washMethodIDs string) []domain.OrderItem {
	services := splitIDs(serviceIDs)
	methods := splitIDs(washMethodIDs)
	if len(services) == 0 && len(methods) == 0 {
		return nil
	}
	if len(services) == 0 {
		services = []string{""}
	}
	if len(methods) == 0 {
		methods = []string{""}
	}
	items := make([]domain.OrderItem, 0, len(services)*len(methods))
	for _, sid := range services {
		for _, wm := range methods {
			items = append(items, domain.OrderItem{Service: domain.ServiceItem{ID: sid}, WashMethodID: wm})
		}
	}
	return items
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := a.service.HandleChatRequest(r.Context(), raw)
	respond(w, http.StatusOK, out, err)
}

func (a *API) orderRoutes(r chi.Router) {
	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		includeTerminal, _ := strconv.ParseBool(r.URL.Query().Get("include_terminal"))
		writeJSON(w, http.StatusOK, a.service.ListOrders(r.Context(), includeTerminal))
	})
	r.Route("/orders/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
			respond(w, http.StatusOK, out, err)
		})
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.DeleteOrder(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("reason"))
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/status", func(w http.ResponseWriter, r *http.Request) {
			var body statusBody
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), body.Status, domain.TransitionInput{
				PickupLocation: body.PickupLocation,
				Reason:         body.Reason,
			})
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/pickup", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Location string `json:"location"`
			}
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.AssignPickupLocation(r.Context(), chi.URLParam(r, "id"), body.Location)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/payment", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Status string `json:"status"`
			}
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
			respond(w, http.StatusOK, out, err)
		})
	})
}

func (a *API) inventoryRoutes(r chi.Router) {
	r.Post("/inventory", func(w http.ResponseWriter, r *http.Request) {
		var req domain.InventoryItemRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddInventoryItem(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Patch("/inventory/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req domain.InventoryItemUpdate
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.UpdateInventoryItem(r.Context(), chi.URLParam(r, "id"), req)
		respond(w, http.StatusOK, out, err)
	})
	r.Delete("/inventory/{id}", func(w http.ResponseWriter, r *http.Request) {
		noContent(w, a.service.DeleteInventoryItem(r.Context(), chi.URLParam(r, "id")))
	})

	r.Get("/inventory-requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.service.ListInventoryRequests(r.Context(), r.URL.Query().Get("status")))
	})
	r.Post("/inventory-requests", func(w http.ResponseWriter, r *http.Request) {
		var req domain.InventoryAdjustmentInput
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.RequestInventoryAdjustment(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Post("/inventory-requests/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		out, err := a.service.ApproveInventoryAdjustment(r.Context(), chi.URLParam(r, "id"))
		respond(w, http.StatusOK, out, err)
	})
	r.Post("/inventory-requests/{id}/reject", func(w http.ResponseWriter, r *http.Request) {
		var body reasonBody
		if !optionalJSON(w, r, &body) {
			return
		}
		out, err := a.service.RejectInventoryAdjustment(r.Context(), chi.URLParam(r, "id"), body.Reason)
		respond(w, http.StatusOK, out, err)
	})
}

func (a *API) promotionRoutes(r chi.Router) {
	r.Post("/promotions", func(w http.ResponseWriter, r *http.Request) {
		var req domain.PromotionRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.CreatePromotion(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Route("/promotions/{id}", func(r chi.Router) {
		r.Post("/approve", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.ApprovePromotion(r.Context(), chi.URLParam(r, "id"))
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/reject", func(w http.ResponseWriter, r *http.Request) {
			var body reasonBody
			if !optionalJSON(w, r, &body) {
				return
			}
			out, err := a.service.RejectPromotion(r.Context(), chi.URLParam(r, "id"), body.Reason)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/apply", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				OrderID string `json:"order_id"`
			}
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.ApplyPromotion(r.Context(), chi.URLParam(r, "id"), body.OrderID)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/opt-out", func(w http.ResponseWriter, r *http.Request) {
			var body reasonBody
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.RequestOptOut(r.Context(), chi.URLParam(r, "id"), body.Reason)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/opt-out/{requestID}", func(w http.ResponseWriter, r *http.Request) {
			var body decisionBody
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.ResolveOptOut(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "requestID"), body.Approve)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/cancellation", func(w http.ResponseWriter, r *http.Request) {
			var body reasonBody
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.RequestPromotionCancellation(r.Context(), chi.URLParam(r, "id"), body.Reason)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/cancellation/resolve", func(w http.ResponseWriter, r *http.Request) {
			var body decisionBody
			if !readJSON(w, r, &body) {
				return
			}
			out, err := a.service.ResolvePromotionCancellation(r.Context(), chi.URLParam(r, "id"), body.Approve)
			respond(w, http.StatusOK, out, err)
		})
	})
}

func (a *API) financeRoutes(r chi.Router) {
	r.Route("/finance", func(r chi.Router) {
		r.Post("/variable-costs", func(w http.ResponseWriter, r *http.Request) {
			var req domain.VariableCostRequest
			if !readJSON(w, r, &req) {
				return
			}
			out, err := a.service.AddVariableCost(r.Context(), req)
			respond(w, http.StatusCreated, out, err)
		})
		r.Delete("/variable-costs/{id}", func(w http.ResponseWriter, r *http.Request) {
			noContent(w, a.service.DeleteVariableCost(r.Context(), chi.URLParam(r, "id")))
		})
		r.Put("/fixed-costs", func(w http.ResponseWriter, r *http.Request) {
			var items []domain.FixedCostInput
			if !readJSON(w, r, &items) {
				return
			}
			out, err := a.service.ReplaceFixedCosts(r.Context(), r.URL.Query().Get("owner_id"), items)
			respond(w, http.StatusOK, out, err)
		})
		r.Get("/fixed-costs/history", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.FixedCostHistory(r.Context(), r.URL.Query().Get("owner_id"))
			respond(w, http.StatusOK, out, err)
		})
		r.Get("/summary", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			to, err := parseTimeParam(q.Get("to"), a.service.Now())
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("to: %w", err))
				return
			}
			from, err := parseTimeParam(q.Get("from"), to.AddDate(0, -1, 0))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("from: %w", err))
				return
			}
			out, err := a.service.FinancialSummary(r.Context(), q.Get("owner_id"), from, to)
			respond(w, http.StatusOK, out, err)
		})
	})
}

func (a *API) feedbackRoutes(r chi.Router) {
	r.Post("/feedback/service-ratings", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ServiceRatingRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddServiceRating(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Post("/feedback/staff-ratings", func(w http.ResponseWriter, r *http.Request) {
		var req domain.StaffRatingRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddStaffRating(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Post("/feedback/tips", func(w http.ResponseWriter, r *http.Request) {
		var req domain.TipRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddTip(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
}

func (a *API) kpiRoutes(r chi.Router) {
	r.Get("/kpis", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, a.service.ListKPIs(r.Context(), r.URL.Query().Get("period_type")))
	})
	r.Post("/kpis/calculate", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PeriodType string     `json:"period_type"`
			Reference  *time.Time `json:"reference,omitempty"`
		}
		if !readJSON(w, r, &body) {
			return
		}
		ref := a.service.Now()
		if body.Reference != nil {
			ref = *body.Reference
		}
		out, err := a.service.CalculateAndStoreKPIsForAllStaff(r.Context(), body.PeriodType, ref)
		respond(w, http.StatusOK, out, err)
	})
}

func (a *API) notificationRoutes(r chi.Router) {
	r.Post("/notifications", func(w http.ResponseWriter, r *http.Request) {
		var req domain.NotificationRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.Notify(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Post("/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		noContent(w, a.service.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")))
	})
	r.Post("/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		n, err := a.service.MarkAllNotificationsRead(r.Context())
		respond(w, http.StatusOK, countBody{Count: n}, err)
	})
	r.Delete("/notifications", func(w http.ResponseWriter, r *http.Request) {
		n, err := a.service.ClearNotifications(r.Context())
		respond(w, http.StatusOK, countBody{Count: n}, err)
	})
}

func (a *API) userRoutes(r chi.Router) {
	r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
		var req domain.StaffUserRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.CreateStaffUser(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Post("/users/me/password", func(w http.ResponseWriter, r *http.Request) {
		var req domain.PasswordChange
		if !readJSON(w, r, &req) {
			return
		}
		noContent(w, a.service.ChangePassword(r.Context(), req))
	})
	r.Route("/users/{id}", func(r chi.Router) {
		r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
			var req domain.UserUpdate
			if !readJSON(w, r, &req) {
				return
			}
			out, err := a.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), req)
			respond(w, http.StatusOK, out, err)
		})
		r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			noContent(w, a.service.DeleteUser(r.Context(), chi.URLParam(r, "id")))
		})
		r.Post("/addresses", func(w http.ResponseWriter, r *http.Request) {
			var req domain.AddressRequest
			if !readJSON(w, r, &req) {
				return
			}
			out, err := a.service.AddAddress(r.Context(), chi.URLParam(r, "id"), req)
			respond(w, http.StatusCreated, out, err)
		})
		r.Post("/addresses/{addressID}/default", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.SetDefaultAddress(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "addressID"))
			respond(w, http.StatusOK, out, err)
		})
		r.Delete("/addresses/{addressID}", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.RemoveAddress(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "addressID"))
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/interactions", func(w http.ResponseWriter, r *http.Request) {
			var req domain.InteractionRequest
			if !readJSON(w, r, &req) {
				return
			}
			out, err := a.service.LogInteraction(r.Context(), chi.URLParam(r, "id"), req)
			respond(w, http.StatusCreated, out, err)
		})
	})

	r.Get("/stores/{ownerID}/settings", func(w http.ResponseWriter, r *http.Request) {
		out, err := a.service.StoreSettings(r.Context(), chi.URLParam(r, "ownerID"))
		respond(w, http.StatusOK, out, err)
	})
	r.Put("/stores/{ownerID}/settings", func(w http.ResponseWriter, r *http.Request) {
		var req domain.StoreSettingsRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.UpdateStoreSettings(r.Context(), chi.URLParam(r, "ownerID"), req)
		respond(w, http.StatusOK, out, err)
	})
}

func (a *API) materialRoutes(r chi.Router) {
	r.Post("/materials", func(w http.ResponseWriter, r *http.Request) {
		var req domain.MaterialItemRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddMaterialItem(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Post("/material-orders", func(w http.ResponseWriter, r *http.Request) {
		var req domain.MaterialOrderRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.CreateMaterialOrder(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Route("/material-orders/{id}", func(r chi.Router) {
		r.Post("/approve", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.ApproveMaterialOrder(r.Context(), chi.URLParam(r, "id"))
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/reject", func(w http.ResponseWriter, r *http.Request) {
			var body reasonBody
			if !optionalJSON(w, r, &body) {
				return
			}
			out, err := a.service.RejectMaterialOrder(r.Context(), chi.URLParam(r, "id"), body.Reason)
			respond(w, http.StatusOK, out, err)
		})
		r.Post("/receive", func(w http.ResponseWriter, r *http.Request) {
			out, err := a.service.ReceiveMaterialOrder(r.Context(), chi.URLParam(r, "id"))
			respond(w, http.StatusOK, out, err)
		})
	})
}

func (a *API) catalogRoutes(r chi.Router) {
	r.Post("/wash-methods", func(w http.ResponseWriter, r *http.Request) {
		var req domain.WashMethodRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddWashMethod(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Put("/wash-methods/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req domain.WashMethodRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.UpdateWashMethod(r.Context(), chi.URLParam(r, "id"), req)
		respond(w, http.StatusOK, out, err)
	})
	r.Delete("/wash-methods/{id}", func(w http.ResponseWriter, r *http.Request) {
		noContent(w, a.service.DeleteWashMethod(r.Context(), chi.URLParam(r, "id")))
	})

	r.Post("/services", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ServiceRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.AddService(r.Context(), req)
		respond(w, http.StatusCreated, out, err)
	})
	r.Put("/services/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req domain.ServiceRequest
		if !readJSON(w, r, &req) {
			return
		}
		out, err := a.service.UpdateService(r.Context(), chi.URLParam(r, "id"), req)
		respond(w, http.StatusOK, out, err)
	})
	r.Delete("/services/{id}", func(w http.ResponseWriter, r *http.Request) {
		noContent(w, a.service.DeleteService(r.Context(), chi.URLParam(r, "id")))
	})
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates (UTC midnight).
func parseTimeParam(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD")
	}
	return t, nil
}

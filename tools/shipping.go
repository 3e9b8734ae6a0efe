package tools

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/BaSui01/contextbench/store"
	"github.com/BaSui01/contextbench/types"
)

// =============================================================================
// Argument types
// =============================================================================

type customerIDArgs struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

type emailArgs struct {
	Email string `json:"email" validate:"required,email"`
}

type orderIDArgs struct {
	OrderID string `json:"order_id" validate:"required"`
}

type trackingArgs struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

type carrierArgs struct {
	Carrier string `json:"carrier" validate:"required"`
}

type dateArgs struct {
	Date string `json:"date" validate:"omitempty,isodate"`
}

type warehouseArgs struct {
	WarehouseID string `json:"warehouse_id" validate:"required"`
}

type skuArgs struct {
	SKU string `json:"sku" validate:"required"`
}

type skuWarehouseArgs struct {
	SKU         string `json:"sku" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
}

type orderReasonArgs struct {
	OrderID string `json:"order_id" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

type expediteArgs struct {
	OrderID      string `json:"order_id" validate:"required"`
	ServiceLevel string `json:"service_level" validate:"required"`
}

type refundArgs struct {
	OrderID string  `json:"order_id" validate:"required"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Reason  string  `json:"reason" validate:"required"`
}

type addressArgs struct {
	OrderID string `json:"order_id" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type ticketArgs struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	Priority   string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

type notifyArgs struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Channel    string `json:"channel" validate:"required,oneof=email sms"`
	Message    string `json:"message" validate:"required"`
}

type creditArgs struct {
	CustomerID string  `json:"customer_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0,lte=500"`
	Reason     string  `json:"reason"`
}

// =============================================================================
// Operations shared by the fine-grained and consolidated surfaces
// =============================================================================

func shipping(env *Env) *store.Shipping { return env.Stores.Shipping }

func getCustomer(env *Env, id string) types.ToolOutcome {
	c, ok := shipping(env).Customer(id)
	if !ok {
		return types.Fail(types.ErrNotFound, "customer %s not found", id)
	}
	return types.OK(c)
}

func findCustomerByEmail(env *Env, email string) types.ToolOutcome {
	c, ok := shipping(env).CustomerByEmail(email)
	if !ok {
		return types.Fail(types.ErrNotFound, "no customer with email %s", email)
	}
	return types.OK(c)
}

func getOrder(env *Env, id string) types.ToolOutcome {
	o, ok := shipping(env).Order(id)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", id)
	}
	return types.OK(o)
}

func getShipment(env *Env, orderID string) types.ToolOutcome {
	if _, ok := shipping(env).Order(orderID); !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	sh, ok := shipping(env).Shipment(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s has not shipped yet", orderID)
	}
	return types.OK(sh)
}

func getTracking(env *Env, number string) types.ToolOutcome {
	scans, ok := shipping(env).Tracking(number)
	if !ok {
		return types.Fail(types.ErrNotFound, "tracking number %s not found", number)
	}
	return types.OK(map[string]any{
		"tracking_number": number,
		"scans":           scans,
		"latest":          scans[len(scans)-1],
	})
}

func getCarrier(env *Env, code string) types.ToolOutcome {
	c, ok := shipping(env).Carrier(code)
	if !ok {
		return types.Fail(types.ErrNotFound, "carrier %s not found (known: %s)", code, strings.Join(shipping(env).CarrierCodes(), ", "))
	}
	return types.OK(c)
}

func getIncidents(env *Env, date string) types.ToolOutcome {
	resolved := store.ResolveDate(date)
	incidents, ok := shipping(env).Incidents(resolved)
	if !ok {
		incidents = []store.Incident{}
	}
	return types.OK(map[string]any{
		"date":      resolved,
		"incidents": incidents,
	})
}

func getWarehouse(env *Env, id string) types.ToolOutcome {
	w, ok := shipping(env).Warehouse(id)
	if !ok {
		return types.Fail(types.ErrNotFound, "warehouse %s not found", id)
	}
	return types.OK(w)
}

func checkInventory(env *Env, sku string) types.ToolOutcome {
	levels, ok := shipping(env).Inventory(sku)
	if !ok {
		return types.Fail(types.ErrNotFound, "sku %s not found", sku)
	}
	total := 0
	for _, l := range levels {
		total += l.Quantity
	}
	return types.OK(map[string]any{"sku": strings.ToUpper(sku), "total_available": total, "warehouses": levels})
}

func checkInventoryAt(env *Env, sku, warehouseID string) types.ToolOutcome {
	if _, ok := shipping(env).Warehouse(warehouseID); !ok {
		return types.Fail(types.ErrNotFound, "warehouse %s not found", warehouseID)
	}
	levels, ok := shipping(env).Inventory(sku)
	if !ok {
		return types.Fail(types.ErrNotFound, "sku %s not found", sku)
	}
	for _, l := range levels {
		if strings.EqualFold(l.WarehouseID, warehouseID) {
			return types.OK(map[string]any{"sku": strings.ToUpper(sku), "warehouse_id": l.WarehouseID, "quantity": l.Quantity, "in_stock": l.Quantity > 0})
		}
	}
	return types.OK(map[string]any{"sku": strings.ToUpper(sku), "warehouse_id": strings.ToUpper(warehouseID), "quantity": 0, "in_stock": false})
}

func createReturnLabel(env *Env, orderID, reason string) types.ToolOutcome {
	o, ok := shipping(env).Order(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	if o.Status != store.OrderDelivered {
		return types.Fail(types.ErrInvalid, "order %s is %s; return labels are only issued for delivered orders", o.ID, o.Status)
	}
	return types.OK(map[string]any{
		"label_id":   "RL-" + o.ID,
		"order_id":   o.ID,
		"carrier":    o.Carrier,
		"reason":     reason,
		"expires_on": "2026-01-14",
	})
}

func cancelOrder(env *Env, orderID, reason string) types.ToolOutcome {
	o, ok := shipping(env).Order(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	if o.Status != store.OrderProcessing && o.Status != store.OrderOnHold {
		return types.Fail(types.ErrInvalid, "order %s is %s and can no longer be cancelled", o.ID, o.Status)
	}
	return types.OK(map[string]any{"order_id": o.ID, "status": "CANCELLATION_REQUESTED", "reason": reason, "refund_amount": o.Total})
}

func holdOrder(env *Env, orderID, reason string) types.ToolOutcome {
	o, ok := shipping(env).Order(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	if o.Status != store.OrderProcessing {
		return types.Fail(types.ErrInvalid, "only processing orders can be held; order %s is %s", o.ID, o.Status)
	}
	return types.OK(map[string]any{"order_id": o.ID, "status": store.OrderOnHold, "reason": reason})
}

func expediteOrder(env *Env, orderID, level string) types.ToolOutcome {
	o, ok := shipping(env).Order(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	switch o.Status {
	case store.OrderDelivered, store.OrderCancelled:
		return types.Fail(types.ErrInvalid, "order %s is %s and cannot be expedited", o.ID, o.Status)
	}
	if o.Carrier != "" {
		c, _ := shipping(env).Carrier(o.Carrier)
		offered := false
		for _, l := range c.ServiceLevels {
			if l == level {
				offered = true
				break
			}
		}
		if !offered {
			return types.Fail(types.ErrInvalid, "%s does not offer service level %q (offers: %s)", c.Name, level, strings.Join(c.ServiceLevels, ", "))
		}
	}
	return types.OK(map[string]any{"order_id": o.ID, "service_level": level, "status": "EXPEDITE_REQUESTED"})
}

func issueRefund(env *Env, orderID string, amount float64, reason string) types.ToolOutcome {
	o, ok := shipping(env).Order(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	if amount > o.Total {
		return types.Fail(types.ErrInvalid, "refund %.2f exceeds order total %.2f", amount, o.Total)
	}
	return types.OK(map[string]any{
		"refund_id": fmt.Sprintf("RF-%s-%d", o.ID, int(math.Round(amount*100))),
		"order_id":  o.ID,
		"amount":    amount,
		"currency":  o.Currency,
		"reason":    reason,
		"status":    "PENDING",
	})
}

func updateAddress(env *Env, orderID, address string) types.ToolOutcome {
	o, ok := shipping(env).Order(orderID)
	if !ok {
		return types.Fail(types.ErrNotFound, "order %s not found", orderID)
	}
	if o.Status != store.OrderProcessing && o.Status != store.OrderOnHold {
		return types.Fail(types.ErrInvalid, "order %s is %s; the address can no longer change", o.ID, o.Status)
	}
	return types.OK(map[string]any{"order_id": o.ID, "shipping_address": address, "status": "ADDRESS_UPDATED"})
}

func createTicket(env *Env, customerID, subject, priority string) types.ToolOutcome {
	if _, ok := shipping(env).Customer(customerID); !ok {
		return types.Fail(types.ErrNotFound, "customer %s not found", customerID)
	}
	if priority == "" {
		priority = "normal"
	}
	return types.OK(map[string]any{
		"ticket_id":   fmt.Sprintf("TCK-%05d", stableHash(customerID+"|"+subject)%100000),
		"customer_id": customerID,
		"subject":     subject,
		"priority":    priority,
		"status":      "OPEN",
	})
}

func notifyCustomer(env *Env, customerID, channel, message string) types.ToolOutcome {
	c, ok := shipping(env).Customer(customerID)
	if !ok {
		return types.Fail(types.ErrNotFound, "customer %s not found", customerID)
	}
	dest := c.Email
	if channel == "sms" {
		dest = c.Phone
	}
	return types.OK(map[string]any{"customer_id": c.ID, "channel": channel, "sent_to": dest, "characters": len(message), "status": "QUEUED"})
}

func billingInfo(env *Env, customerID string) types.ToolOutcome {
	c, ok := shipping(env).Customer(customerID)
	if !ok {
		return types.Fail(types.ErrNotFound, "customer %s not found", customerID)
	}
	return types.OK(map[string]any{
		"customer_id":    c.ID,
		"tier":           c.Tier,
		"account_credit": c.Credit,
		"payment_method": fmt.Sprintf("card ending %04d", stableHash(c.ID)%10000),
		"orders":         len(shipping(env).OrdersForCustomer(c.ID)),
	})
}

func applyCredit(env *Env, customerID string, amount float64, reason string) types.ToolOutcome {
	c, ok := shipping(env).Customer(customerID)
	if !ok {
		return types.Fail(types.ErrNotFound, "customer %s not found", customerID)
	}
	return types.OK(map[string]any{"customer_id": c.ID, "credited": amount, "new_balance": c.Credit + amount, "reason": reason})
}

func fraudScore(env *Env, customerID string) types.ToolOutcome {
	if _, ok := shipping(env).Customer(customerID); !ok {
		return types.Fail(types.ErrNotFound, "customer %s not found", customerID)
	}
	score := store.FraudScore(customerID)
	risk := "low"
	switch {
	case score >= 80:
		risk = "high"
	case score >= 50:
		risk = "medium"
	}
	return types.OK(map[string]any{"customer_id": customerID, "fraud_score": score, "risk": risk})
}

func stableHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// =============================================================================
// Fine-grained surface
// =============================================================================

func registerShipping(r *Registry) {
	orderID := req("order_id", str(), "Order number, e.g. 84721")
	customerID := req("customer_id", str(), "Customer id, e.g. C-1001")

	r.add(describe("get_customer", "Look up a customer by id.", ClassLookup, customerID),
		typed(func(_ context.Context, env *Env, a customerIDArgs) types.ToolOutcome { return getCustomer(env, a.CustomerID) }))
	r.add(describe("find_customer_by_email", "Look up a customer by email address.", ClassLookup,
		req("email", str().WithFormat(types.FormatEmail), "Customer email")),
		typed(func(_ context.Context, env *Env, a emailArgs) types.ToolOutcome { return findCustomerByEmail(env, a.Email) }))
	r.add(describe("get_order", "Get an order's status, items, carrier, tracking number and ETA.", ClassLookup, orderID),
		typed(func(_ context.Context, env *Env, a orderIDArgs) types.ToolOutcome { return getOrder(env, a.OrderID) }))
	r.add(describe("get_customer_orders", "List a customer's orders.", ClassLookup, customerID),
		typed(func(_ context.Context, env *Env, a customerIDArgs) types.ToolOutcome {
			if _, ok := shipping(env).Customer(a.CustomerID); !ok {
				return types.Fail(types.ErrNotFound, "customer %s not found", a.CustomerID)
			}
			return types.OK(map[string]any{"customer_id": a.CustomerID, "orders": shipping(env).OrdersForCustomer(a.CustomerID)})
		}))
	r.add(describe("get_shipment", "Get the shipment of an order, including original and current ETA and any delay reason.", ClassLookup, orderID),
		typed(func(_ context.Context, env *Env, a orderIDArgs) types.ToolOutcome { return getShipment(env, a.OrderID) }))
	r.add(describe("get_tracking_details", "Get the tracking scans of a tracking number.", ClassLookup,
		req("tracking_number", str(), "Carrier tracking number")),
		typed(func(_ context.Context, env *Env, a trackingArgs) types.ToolOutcome { return getTracking(env, a.TrackingNumber) }))
	r.add(describe("get_carrier_info", "Get a carrier's contact details and service levels.", ClassLookup,
		req("carrier", str(), "Carrier code, e.g. UPS or ROYAL_MAIL")),
		typed(func(_ context.Context, env *Env, a carrierArgs) types.ToolOutcome { return getCarrier(env, a.Carrier) }))
	r.add(describe("get_carrier_service_levels", "List a carrier's service levels.", ClassLookup,
		req("carrier", str(), "Carrier code")),
		typed(func(_ context.Context, env *Env, a carrierArgs) types.ToolOutcome {
			c, ok := shipping(env).Carrier(a.Carrier)
			if !ok {
				return types.Fail(types.ErrNotFound, "carrier %s not found", a.Carrier)
			}
			return types.OK(map[string]any{"carrier": c.Code, "service_levels": c.ServiceLevels})
		}))
	r.add(describe("get_carrier_incidents", "List carrier incidents for a date (yyyy-mm-dd or \"today\").", ClassLookup,
		opt("date", str().WithFormat(types.FormatDate), "ISO date or \"today\"")),
		typed(func(_ context.Context, env *Env, a dateArgs) types.ToolOutcome { return getIncidents(env, a.Date) }))
	r.add(describe("get_warehouse_info", "Get a warehouse's location and operating status.", ClassLookup,
		req("warehouse_id", str(), "Warehouse id, e.g. WH-EAST")),
		typed(func(_ context.Context, env *Env, a warehouseArgs) types.ToolOutcome { return getWarehouse(env, a.WarehouseID) }))
	r.add(describe("check_inventory", "Check stock of a SKU across all warehouses.", ClassLookup,
		req("sku", str(), "Stock keeping unit")),
		typed(func(_ context.Context, env *Env, a skuArgs) types.ToolOutcome { return checkInventory(env, a.SKU) }))
	r.add(describe("check_inventory_at_warehouse", "Check stock of a SKU in one warehouse.", ClassLookup,
		req("sku", str(), "Stock keeping unit"), req("warehouse_id", str(), "Warehouse id")),
		typed(func(_ context.Context, env *Env, a skuWarehouseArgs) types.ToolOutcome {
			return checkInventoryAt(env, a.SKU, a.WarehouseID)
		}))
	r.add(describe("create_return_label", "Create a return label for a delivered order.", ClassAction,
		orderID, req("reason", str(), "Return reason")),
		typed(func(_ context.Context, env *Env, a orderReasonArgs) types.ToolOutcome {
			return createReturnLabel(env, a.OrderID, a.Reason)
		}))
	r.add(describe("cancel_order", "Cancel an order that has not shipped.", ClassAction,
		orderID, req("reason", str(), "Cancellation reason")),
		typed(func(_ context.Context, env *Env, a orderReasonArgs) types.ToolOutcome { return cancelOrder(env, a.OrderID, a.Reason) }))
	r.add(describe("hold_order", "Put a processing order on hold.", ClassAction,
		orderID, req("reason", str(), "Hold reason")),
		typed(func(_ context.Context, env *Env, a orderReasonArgs) types.ToolOutcome { return holdOrder(env, a.OrderID, a.Reason) }))
	r.add(describe("expedite_order", "Upgrade an order to a faster service level.", ClassAction,
		orderID, req("service_level", str(), "Target service level")),
		typed(func(_ context.Context, env *Env, a expediteArgs) types.ToolOutcome {
			return expediteOrder(env, a.OrderID, a.ServiceLevel)
		}))
	r.add(describe("issue_refund", "Refund part or all of an order.", ClassAction,
		orderID, req("amount", num().WithMinimum(0), "Refund amount"), req("reason", str(), "Refund reason")),
		typed(func(_ context.Context, env *Env, a refundArgs) types.ToolOutcome {
			return issueRefund(env, a.OrderID, a.Amount, a.Reason)
		}))
	r.add(describe("update_shipping_address", "Change the shipping address of an unshipped order.", ClassAction,
		orderID, req("address", str(), "New address")),
		typed(func(_ context.Context, env *Env, a addressArgs) types.ToolOutcome { return updateAddress(env, a.OrderID, a.Address) }))
	r.add(describe("create_support_ticket", "Open a customer-service ticket.", ClassAction,
		customerID, req("subject", str(), "Ticket subject"),
		opt("priority", types.NewEnumSchema("low", "normal", "high", "urgent"), "Ticket priority")),
		typed(func(_ context.Context, env *Env, a ticketArgs) types.ToolOutcome {
			return createTicket(env, a.CustomerID, a.Subject, a.Priority)
		}))
	r.add(describe("send_customer_notification", "Send the customer an email or SMS.", ClassAction,
		customerID, req("channel", types.NewEnumSchema("email", "sms"), "Delivery channel"), req("message", str(), "Message body")),
		typed(func(_ context.Context, env *Env, a notifyArgs) types.ToolOutcome {
			return notifyCustomer(env, a.CustomerID, a.Channel, a.Message)
		}))
	r.add(describe("get_billing_info", "Get a customer's billing profile and account credit.", ClassLookup, customerID),
		typed(func(_ context.Context, env *Env, a customerIDArgs) types.ToolOutcome { return billingInfo(env, a.CustomerID) }))
	r.add(describe("apply_account_credit", "Credit a customer's account (max 500).", ClassAction,
		customerID, req("amount", num().WithMinimum(0), "Credit amount"), opt("reason", str(), "Reason")),
		typed(func(_ context.Context, env *Env, a creditArgs) types.ToolOutcome {
			return applyCredit(env, a.CustomerID, a.Amount, a.Reason)
		}))
	r.add(describe("get_fraud_score", "Get a customer's fraud risk score.", ClassLookup, customerID),
		typed(func(_ context.Context, env *Env, a customerIDArgs) types.ToolOutcome { return fraudScore(env, a.CustomerID) }))
}

// =============================================================================
// Consolidated surface
// =============================================================================

type lookupCustomerArgs struct {
	CustomerID string `json:"customer_id" validate:"required_without=Email,excluded_with=Email"`
	Email      string `json:"email" validate:"omitempty,email"`
}

type manageOrderArgs struct {
	Action       string  `json:"action" validate:"required,oneof=cancel hold expedite refund return_label update_address"`
	OrderID      string  `json:"order_id" validate:"required"`
	Reason       string  `json:"reason"`
	ServiceLevel string  `json:"service_level"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Address      string  `json:"address"`
}

type carrierInfoArgs struct {
	Carrier string   `json:"carrier" validate:"required"`
	Include []string `json:"include" validate:"dive,oneof=profile service_levels incidents"`
	Date    string   `json:"date" validate:"omitempty,isodate"`
}

type warehouseInfoArgs struct {
	WarehouseID string `json:"warehouse_id" validate:"required"`
	SKU         string `json:"sku"`
}

type customerServiceArgs struct {
	Action     string `json:"action" validate:"required,oneof=ticket notify"`
	CustomerID string `json:"customer_id" validate:"required"`
	Subject    string `json:"subject"`
	Priority   string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Channel    string `json:"channel" validate:"omitempty,oneof=email sms"`
	Message    string `json:"message"`
}

type billingArgs struct {
	Action     string  `json:"action" validate:"required,oneof=info credit fraud_score"`
	CustomerID string  `json:"customer_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"gte=0,lte=500"`
	Reason     string  `json:"reason"`
}

func registerShippingConsolidated(r *Registry) {
	orderID := req("order_id", str(), "Order number, e.g. 84721")

	r.add(describe("get_order", "Get an order's status, items, carrier, tracking number and ETA.", ClassLookup, orderID),
		typed(func(_ context.Context, env *Env, a orderIDArgs) types.ToolOutcome { return getOrder(env, a.OrderID) }))
	r.add(describe("get_shipment", "Get the shipment of an order, including original and current ETA and any delay reason.", ClassLookup, orderID),
		typed(func(_ context.Context, env *Env, a orderIDArgs) types.ToolOutcome { return getShipment(env, a.OrderID) }))
	r.add(describe("get_tracking_details", "Get the tracking scans of a tracking number.", ClassLookup,
		req("tracking_number", str(), "Carrier tracking number")),
		typed(func(_ context.Context, env *Env, a trackingArgs) types.ToolOutcome { return getTracking(env, a.TrackingNumber) }))
	r.add(describe("get_carrier_incidents", "List carrier incidents for a date (yyyy-mm-dd or \"today\").", ClassLookup,
		opt("date", str().WithFormat(types.FormatDate), "ISO date or \"today\"")),
		typed(func(_ context.Context, env *Env, a dateArgs) types.ToolOutcome { return getIncidents(env, a.Date) }))

	r.add(describe("lookup_customer", "Look up a customer by id or by email (exactly one).", ClassLookup,
		opt("customer_id", str(), "Customer id"), opt("email", str().WithFormat(types.FormatEmail), "Customer email")),
		typed(func(_ context.Context, env *Env, a lookupCustomerArgs) types.ToolOutcome {
			if a.CustomerID != "" {
				return getCustomer(env, a.CustomerID)
			}
			return findCustomerByEmail(env, a.Email)
		}))

	r.add(describe("manage_order", "Change an order: cancel, hold, expedite, refund, return_label or update_address.", ClassAction,
		req("action", types.NewEnumSchema("cancel", "hold", "expedite", "refund", "return_label", "update_address"), "Action"),
		orderID,
		opt("reason", str(), "Reason (cancel, hold, refund, return_label)"),
		opt("service_level", str(), "Target service level (expedite)"),
		opt("amount", num().WithMinimum(0), "Refund amount (refund)"),
		opt("address", str(), "New address (update_address)")),
		typed(func(_ context.Context, env *Env, a manageOrderArgs) types.ToolOutcome {
			switch a.Action {
			case "cancel":
				return cancelOrder(env, a.OrderID, a.Reason)
			case "hold":
				return holdOrder(env, a.OrderID, a.Reason)
			case "expedite":
				if a.ServiceLevel == "" {
					return types.Fail(types.ErrInvalid, "expedite requires service_level")
				}
				return expediteOrder(env, a.OrderID, a.ServiceLevel)
			case "refund":
				if a.Amount <= 0 {
					return types.Fail(types.ErrInvalid, "refund requires a positive amount")
				}
				return issueRefund(env, a.OrderID, a.Amount, a.Reason)
			case "return_label":
				return createReturnLabel(env, a.OrderID, a.Reason)
			default:
				if a.Address == "" {
					return types.Fail(types.ErrInvalid, "update_address requires address")
				}
				return updateAddress(env, a.OrderID, a.Address)
			}
		}))

	r.add(describe("get_carrier_info", "Get carrier details; include any of profile, service_levels, incidents.", ClassLookup,
		req("carrier", str(), "Carrier code"),
		opt("include", types.NewArraySchema(types.NewEnumSchema("profile", "service_levels", "incidents")), "Sections to include (default profile)"),
		opt("date", str().WithFormat(types.FormatDate), "Incident date when incidents are included")),
		typed(func(_ context.Context, env *Env, a carrierInfoArgs) types.ToolOutcome {
			c, ok := shipping(env).Carrier(a.Carrier)
			if !ok {
				return types.Fail(types.ErrNotFound, "carrier %s not found", a.Carrier)
			}
			include := a.Include
			if len(include) == 0 {
				include = []string{"profile"}
			}
			out := map[string]any{"carrier": c.Code}
			for _, section := range include {
				switch section {
				case "profile":
					out["profile"] = c
				case "service_levels":
					out["service_levels"] = c.ServiceLevels
				case "incidents":
					all, _ := shipping(env).Incidents(a.Date)
					mine := []store.Incident{}
					for _, inc := range all {
						if inc.Carrier == c.Code {
							mine = append(mine, inc)
						}
					}
					out["incidents"] = mine
					out["date"] = store.ResolveDate(a.Date)
				}
			}
			return types.OK(out)
		}))

	r.add(describe("get_warehouse_info", "Get a warehouse; pass sku to include its stock there.", ClassLookup,
		req("warehouse_id", str(), "Warehouse id"), opt("sku", str(), "Stock keeping unit")),
		typed(func(_ context.Context, env *Env, a warehouseInfoArgs) types.ToolOutcome {
			if a.SKU != "" {
				return checkInventoryAt(env, a.SKU, a.WarehouseID)
			}
			return getWarehouse(env, a.WarehouseID)
		}))

	r.add(describe("customer_service", "Open a ticket or notify a customer.", ClassAction,
		req("action", types.NewEnumSchema("ticket", "notify"), "Action"),
		req("customer_id", str(), "Customer id"),
		opt("subject", str(), "Ticket subject (ticket)"),
		opt("priority", types.NewEnumSchema("low", "normal", "high", "urgent"), "Ticket priority (ticket)"),
		opt("channel", types.NewEnumSchema("email", "sms"), "Channel (notify)"),
		opt("message", str(), "Message body (notify)")),
		typed(func(_ context.Context, env *Env, a customerServiceArgs) types.ToolOutcome {
			if a.Action == "ticket" {
				if a.Subject == "" {
					return types.Fail(types.ErrInvalid, "ticket requires subject")
				}
				return createTicket(env, a.CustomerID, a.Subject, a.Priority)
			}
			if a.Channel == "" || a.Message == "" {
				return types.Fail(types.ErrInvalid, "notify requires channel and message")
			}
			return notifyCustomer(env, a.CustomerID, a.Channel, a.Message)
		}))

	r.add(describe("billing", "Billing operations: info, credit or fraud_score.", ClassAction,
		req("action", types.NewEnumSchema("info", "credit", "fraud_score"), "Action"),
		req("customer_id", str(), "Customer id"),
		opt("amount", num().WithMinimum(0), "Credit amount (credit)"),
		opt("reason", str(), "Reason (credit)")),
		typed(func(_ context.Context, env *Env, a billingArgs) types.ToolOutcome {
			switch a.Action {
			case "info":
				return billingInfo(env, a.CustomerID)
			case "credit":
				if a.Amount <= 0 {
					return types.Fail(types.ErrInvalid, "credit requires a positive amount")
				}
				return applyCredit(env, a.CustomerID, a.Amount, a.Reason)
			default:
				return fraudScore(env, a.CustomerID)
			}
		}))
}

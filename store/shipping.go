package store

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
)

// Customer is a shipping customer.
type Customer struct {
	ID      string  `json:"customer_id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Tier    string  `json:"tier"`
	Country string  `json:"country"`
	Since   string  `json:"customer_since"`
	Credit  float64 `json:"account_credit"`
}

// OrderItem is a line on an order.
type OrderItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"unit_price"`
}

// Order statuses.
const (
	OrderProcessing = "PROCESSING"
	OrderInTransit  = "IN_TRANSIT"
	OrderDelayed    = "DELAYED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
	OrderOnHold     = "ON_HOLD"
)

// Order is a customer order.
type Order struct {
	ID                string      `json:"order_id"`
	CustomerID        string      `json:"customer_id"`
	Status            string      `json:"status"`
	Items             []OrderItem `json:"items"`
	Total             float64     `json:"total"`
	Currency          string      `json:"currency"`
	CreatedAt         string      `json:"created_at"`
	Carrier           string      `json:"carrier,omitempty"`
	TrackingNumber    string      `json:"tracking_number,omitempty"`
	EstimatedDelivery string      `json:"estimated_delivery,omitempty"`
	DeliveredAt       string      `json:"delivered_at,omitempty"`
	WarehouseID       string      `json:"warehouse_id"`
	International     bool        `json:"international"`
}

// Shipment is the carrier-side view of an order in flight.
type Shipment struct {
	ID                string `json:"shipment_id"`
	OrderID           string `json:"order_id"`
	Carrier           string `json:"carrier"`
	TrackingNumber    string `json:"tracking_number"`
	Status            string `json:"status"`
	ServiceLevel      string `json:"service_level"`
	Origin            string `json:"origin"`
	Destination       string `json:"destination"`
	OriginalETA       string `json:"original_eta"`
	EstimatedDelivery string `json:"estimated_delivery"`
	DelayReason       string `json:"delay_reason,omitempty"`
}

// Carrier describes a shipping carrier.
type Carrier struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	Website       string   `json:"website"`
	ServiceLevels []string `json:"service_levels"`
	International bool     `json:"international"`
	OnTimeRate    float64  `json:"on_time_rate"`
}

// Incident is a carrier disruption on a given date.
type Incident struct {
	Carrier     string `json:"carrier"`
	Type        string `json:"type"`
	Region      string `json:"region"`
	Description string `json:"description"`
	DelayDays   int    `json:"expected_delay_days"`
}

// Scan is one tracking event.
type Scan struct {
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
}

// Warehouse is a fulfilment centre.
type Warehouse struct {
	ID       string `json:"warehouse_id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

// StockLevel is the quantity of a SKU held in one warehouse.
type StockLevel struct {
	WarehouseID string `json:"warehouse_id"`
	Quantity    int    `json:"quantity"`
}

// Shipping is the frozen shipping namespace.
type Shipping struct {
	customers  map[string]Customer
	byEmail    map[string]string
	orders     map[string]Order
	shipments  map[string]Shipment
	carriers   map[string]Carrier
	incidents  map[string][]Incident
	tracking   map[string][]Scan
	warehouses map[string]Warehouse
	inventory  map[string][]StockLevel
}

// DefaultSeed seeds the generated filler orders.
const DefaultSeed int64 = 42

// fillerOrders is how many generated orders surround the fixtures.
const fillerOrders = 40

// NewShipping builds the shipping store. The seed only affects generated
// filler orders; the scenario fixtures are fixed.
func NewShipping(seed int64) *Shipping {
	s := &Shipping{
		customers:  make(map[string]Customer),
		byEmail:    make(map[string]string),
		orders:     make(map[string]Order),
		shipments:  make(map[string]Shipment),
		carriers:   make(map[string]Carrier),
		incidents:  make(map[string][]Incident),
		tracking:   make(map[string][]Scan),
		warehouses: make(map[string]Warehouse),
		inventory:  make(map[string][]StockLevel),
	}
	for _, c := range fixtureCustomers {
		s.customers[c.ID] = c
		s.byEmail[strings.ToLower(c.Email)] = c.ID
	}
	for _, o := range fixtureOrders {
		s.orders[o.ID] = o
	}
	for _, sh := range fixtureShipments {
		s.shipments[sh.OrderID] = sh
	}
	for _, c := range fixtureCarriers {
		s.carriers[c.Code] = c
	}
	for date, list := range fixtureIncidents {
		s.incidents[date] = list
	}
	for number, scans := range fixtureScans {
		sorted := append([]Scan(nil), scans...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
		s.tracking[number] = sorted
	}
	for _, w := range fixtureWarehouses {
		s.warehouses[w.ID] = w
	}
	for sku, levels := range fixtureInventory {
		s.inventory[sku] = levels
	}
	s.generate(seed)
	return s
}

func (s *Shipping) generate(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	customerIDs := make([]string, 0, len(fixtureCustomers))
	for _, c := range fixtureCustomers {
		customerIDs = append(customerIDs, c.ID)
	}
	skus := make([]string, 0, len(fixtureInventory))
	for sku := range fixtureInventory {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	statuses := []string{OrderProcessing, OrderInTransit, OrderDelivered}
	for made := 0; made < fillerOrders; {
		id := fmt.Sprintf("%d", 10000+rng.Intn(9000))
		if _, exists := s.orders[id]; exists {
			continue
		}
		sku := skus[rng.Intn(len(skus))]
		qty := 1 + rng.Intn(3)
		price := float64(10+rng.Intn(290)) + 0.99
		o := Order{
			ID:          id,
			CustomerID:  customerIDs[rng.Intn(len(customerIDs))],
			Status:      statuses[rng.Intn(len(statuses))],
			Items:       []OrderItem{{SKU: sku, Name: skuNames[sku], Quantity: qty, Price: price}},
			Total:       float64(int((price*float64(qty))*100+0.5)) / 100,
			Currency:    "USD",
			CreatedAt:   fmt.Sprintf("2025-11-%02d", 1+rng.Intn(28)),
			WarehouseID: fixtureWarehouses[rng.Intn(len(fixtureWarehouses))].ID,
		}
		if o.Status != OrderProcessing {
			o.Carrier = "UPS"
			o.TrackingNumber = fmt.Sprintf("1Z%06dAA%08d", rng.Intn(1000000), rng.Intn(100000000))
			o.EstimatedDelivery = fmt.Sprintf("2025-12-%02d", 1+rng.Intn(28))
		}
		s.orders[id] = o
		made++
	}
}

// Customer looks up a customer by id.
func (s *Shipping) Customer(id string) (Customer, bool) {
	c, ok := s.customers[id]
	return c, ok
}

// CustomerByEmail looks up a customer by email, case-insensitively.
func (s *Shipping) CustomerByEmail(email string) (Customer, bool) {
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Customer{}, false
	}
	return s.Customer(id)
}

// Order looks up an order by id. A leading '#' is ignored.
func (s *Shipping) Order(id string) (Order, bool) {
	o, ok := s.orders[NormalizeOrderID(id)]
	if !ok {
		return Order{}, false
	}
	o.Items = append([]OrderItem(nil), o.Items...)
	return o, true
}

// OrdersForCustomer returns a customer's orders sorted by id.
func (s *Shipping) OrdersForCustomer(customerID string) []Order {
	var out []Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			o.Items = append([]OrderItem(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Shipment looks up the shipment of an order.
func (s *Shipping) Shipment(orderID string) (Shipment, bool) {
	sh, ok := s.shipments[NormalizeOrderID(orderID)]
	return sh, ok
}

// Carrier looks up a carrier by code, case-insensitively.
func (s *Shipping) Carrier(code string) (Carrier, bool) {
	c, ok := s.carriers[NormalizeCarrier(code)]
	if !ok {
		return Carrier{}, false
	}
	c.ServiceLevels = append([]string(nil), c.ServiceLevels...)
	return c, true
}

// Incidents returns the ordered incidents for an ISO date. The "today"
// alias is accepted.
func (s *Shipping) Incidents(date string) ([]Incident, bool) {
	list, ok := s.incidents[ResolveDate(date)]
	if !ok {
		return nil, false
	}
	return append([]Incident(nil), list...), true
}

// Tracking returns the timestamp-ascending scans of a tracking number.
func (s *Shipping) Tracking(number string) ([]Scan, bool) {
	scans, ok := s.tracking[strings.TrimSpace(number)]
	if !ok {
		return nil, false
	}
	return append([]Scan(nil), scans...), true
}

// Warehouse looks up a warehouse by id.
func (s *Shipping) Warehouse(id string) (Warehouse, bool) {
	w, ok := s.warehouses[strings.ToUpper(strings.TrimSpace(id))]
	return w, ok
}

// Inventory returns the per-warehouse stock of a SKU.
func (s *Shipping) Inventory(sku string) ([]StockLevel, bool) {
	levels, ok := s.inventory[strings.ToUpper(strings.TrimSpace(sku))]
	if !ok {
		return nil, false
	}
	return append([]StockLevel(nil), levels...), true
}

// OrderCount returns the number of orders, fixtures included.
func (s *Shipping) OrderCount() int {
	return len(s.orders)
}

// CarrierCodes returns the known carrier codes, sorted.
func (s *Shipping) CarrierCodes() []string {
	codes := make([]string, 0, len(s.carriers))
	for code := range s.carriers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NormalizeOrderID is the key form of an order id: trimmed, without a
// leading '#'.
func NormalizeOrderID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "#")
}

// NormalizeEmail is the key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCarrier is the key form of a carrier code.
func NormalizeCarrier(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	c = strings.ReplaceAll(c, " ", "_")
	return c
}

// FraudScore is a deterministic 0..100 risk score for a customer.
func FraudScore(customerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(customerID))
	return int(h.Sum32() % 100)
}

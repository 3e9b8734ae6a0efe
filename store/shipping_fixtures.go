package store

// =============================================================================
// Shipping fixtures
// =============================================================================

var fixtureCustomers = []Customer{
	{ID: "C-1001", Name: "Alice Nguyen", Email: "alice.nguyen@example.com", Phone: "+1-555-0101", Tier: "gold", Country: "US", Since: "2019-04-02", Credit: 25},
	{ID: "C-1002", Name: "Marcus Reed", Email: "marcus.reed@example.com", Phone: "+1-555-0102", Tier: "standard", Country: "US", Since: "2022-08-17", Credit: 0},
	{ID: "C-1003", Name: "Priya Patel", Email: "priya.patel@example.com", Phone: "+1-555-0103", Tier: "silver", Country: "US", Since: "2021-01-11", Credit: 10},
	{ID: "C-1004", Name: "Oliver Hughes", Email: "oliver.hughes@example.co.uk", Phone: "+44-20-7946-0958", Tier: "gold", Country: "GB", Since: "2020-06-30", Credit: 40},
	{ID: "C-1005", Name: "Sofia Martinez", Email: "sofia.martinez@example.com", Phone: "+1-555-0105", Tier: "platinum", Country: "US", Since: "2017-12-01", Credit: 75},
}

var skuNames = map[string]string{
	"SKU-HEADPHONES-01": "Wireless Noise-Cancelling Headphones",
	"SKU-KEYBOARD-02":   "Mechanical Keyboard",
	"SKU-MONITOR-27":    "27-inch 4K Monitor",
	"SKU-CHARGER-65W":   "65W USB-C Charger",
	"SKU-BACKPACK-03":   "Commuter Backpack",
}

var fixtureOrders = []Order{
	{
		ID: "84721", CustomerID: "C-1001", Status: OrderInTransit,
		Items: []OrderItem{{SKU: "SKU-HEADPHONES-01", Name: skuNames["SKU-HEADPHONES-01"], Quantity: 1, Price: 199.99}},
		Total: 199.99, Currency: "USD", CreatedAt: "2025-12-12",
		Carrier: "UPS", TrackingNumber: "1Z999AA10123456784", EstimatedDelivery: "2025-12-22",
		WarehouseID: "WH-EAST",
	},
	{
		ID: "23456", CustomerID: "C-1004", Status: OrderDelayed,
		Items: []OrderItem{
			{SKU: "SKU-MONITOR-27", Name: skuNames["SKU-MONITOR-27"], Quantity: 1, Price: 429.00},
			{SKU: "SKU-CHARGER-65W", Name: skuNames["SKU-CHARGER-65W"], Quantity: 2, Price: 39.50},
		},
		Total: 508.00, Currency: "USD", CreatedAt: "2025-12-05",
		Carrier: "ROYAL_MAIL", TrackingNumber: "RM482913576GB", EstimatedDelivery: "2025-12-20",
		WarehouseID: "WH-EAST", International: true,
	},
	{
		ID: "55310", CustomerID: "C-1002", Status: OrderDelivered,
		Items: []OrderItem{{SKU: "SKU-KEYBOARD-02", Name: skuNames["SKU-KEYBOARD-02"], Quantity: 1, Price: 129.00}},
		Total: 129.00, Currency: "USD", CreatedAt: "2025-12-01",
		Carrier: "USPS", TrackingNumber: "9400111899223856923412", EstimatedDelivery: "2025-12-09",
		DeliveredAt: "2025-12-10", WarehouseID: "WH-CENTRAL",
	},
	{
		ID: "67890", CustomerID: "C-1003", Status: OrderProcessing,
		Items: []OrderItem{{SKU: "SKU-BACKPACK-03", Name: skuNames["SKU-BACKPACK-03"], Quantity: 2, Price: 79.95}},
		Total: 159.90, Currency: "USD", CreatedAt: "2025-12-14",
		WarehouseID: "WH-WEST",
	},
	{
		ID: "99001", CustomerID: "C-1002", Status: OrderCancelled,
		Items: []OrderItem{{SKU: "SKU-CHARGER-65W", Name: skuNames["SKU-CHARGER-65W"], Quantity: 1, Price: 39.50}},
		Total: 39.50, Currency: "USD", CreatedAt: "2025-11-28",
		WarehouseID: "WH-CENTRAL",
	},
	{
		ID: "31415", CustomerID: "C-1005", Status: OrderInTransit,
		Items: []OrderItem{{SKU: "SKU-MONITOR-27", Name: skuNames["SKU-MONITOR-27"], Quantity: 2, Price: 429.00}},
		Total: 858.00, Currency: "USD", CreatedAt: "2025-12-11",
		Carrier: "FEDEX", TrackingNumber: "7489 2211 0045", EstimatedDelivery: "2025-12-17",
		WarehouseID: "WH-WEST",
	},
}

var fixtureShipments = []Shipment{
	{
		ID: "SHP-84721", OrderID: "84721", Carrier: "UPS", TrackingNumber: "1Z999AA10123456784",
		Status: OrderInTransit, ServiceLevel: "ground", Origin: "Newark, NJ", Destination: "Columbus, OH",
		OriginalETA: "2025-12-22", EstimatedDelivery: "2025-12-22",
	},
	{
		ID: "SHP-23456", OrderID: "23456", Carrier: "ROYAL_MAIL", TrackingNumber: "RM482913576GB",
		Status: OrderDelayed, ServiceLevel: "international_tracked", Origin: "Newark, NJ", Destination: "Manchester, GB",
		OriginalETA: "2025-12-16", EstimatedDelivery: "2025-12-20",
		DelayReason: "Held in customs processing at the Heathrow inbound hub",
	},
	{
		ID: "SHP-55310", OrderID: "55310", Carrier: "USPS", TrackingNumber: "9400111899223856923412",
		Status: OrderDelivered, ServiceLevel: "priority", Origin: "Dallas, TX", Destination: "Austin, TX",
		OriginalETA: "2025-12-09", EstimatedDelivery: "2025-12-10",
	},
	{
		ID: "SHP-31415", OrderID: "31415", Carrier: "FEDEX", TrackingNumber: "7489 2211 0045",
		Status: OrderInTransit, ServiceLevel: "express", Origin: "Reno, NV", Destination: "Denver, CO",
		OriginalETA: "2025-12-16", EstimatedDelivery: "2025-12-17",
		DelayReason: "Weather hold at the Salt Lake City hub",
	},
}

var fixtureCarriers = []Carrier{
	{Code: "UPS", Name: "United Parcel Service", Phone: "1-800-742-5877", Website: "https://www.ups.com", ServiceLevels: []string{"ground", "2nd_day_air", "next_day_air"}, OnTimeRate: 0.962},
	{Code: "USPS", Name: "United States Postal Service", Phone: "1-800-275-8777", Website: "https://www.usps.com", ServiceLevels: []string{"ground_advantage", "priority", "priority_express"}, OnTimeRate: 0.914},
	{Code: "FEDEX", Name: "FedEx", Phone: "1-800-463-3339", Website: "https://www.fedex.com", ServiceLevels: []string{"ground", "express", "overnight"}, International: true, OnTimeRate: 0.951},
	{Code: "ROYAL_MAIL", Name: "Royal Mail", Phone: "+44-345-774-0740", Website: "https://www.royalmail.com", ServiceLevels: []string{"international_standard", "international_tracked"}, International: true, OnTimeRate: 0.887},
	{Code: "DHL", Name: "DHL Express", Phone: "1-800-225-5345", Website: "https://www.dhl.com", ServiceLevels: []string{"express_worldwide", "economy_select"}, International: true, OnTimeRate: 0.948},
}

var fixtureIncidents = map[string][]Incident{
	"2025-12-14": {
		{Carrier: "FEDEX", Type: "weather", Region: "Mountain West", Description: "Snowstorm slowing line-haul through the Salt Lake City hub", DelayDays: 1},
	},
	Today: {
		{Carrier: "ROYAL_MAIL", Type: "customs_delay", Region: "UK inbound", Description: "Customs processing backlog at the Heathrow inbound hub; international parcels held up to 4 days", DelayDays: 4},
		{Carrier: "UPS", Type: "volume", Region: "Northeast", Description: "Peak-season volume; ground deliveries may slip by up to 1 day", DelayDays: 1},
	},
	"2025-12-16": {
		{Carrier: "DHL", Type: "system_outage", Region: "Global", Description: "Tracking updates delayed by a scanning system outage", DelayDays: 0},
	},
}

var fixtureScans = map[string][]Scan{
	"1Z999AA10123456784": {
		{Timestamp: "2025-12-14T09:12:00Z", Location: "Harrisburg, PA", Status: "IN_TRANSIT", Detail: "Departed facility"},
		{Timestamp: "2025-12-12T18:40:00Z", Location: "Newark, NJ", Status: "LABEL_CREATED", Detail: "Shipper created a label"},
		{Timestamp: "2025-12-13T07:05:00Z", Location: "Newark, NJ", Status: "PICKED_UP", Detail: "Picked up by carrier"},
	},
	"RM482913576GB": {
		{Timestamp: "2025-12-06T10:00:00Z", Location: "Newark, NJ", Status: "PICKED_UP", Detail: "Accepted at origin"},
		{Timestamp: "2025-12-09T22:15:00Z", Location: "London Heathrow, GB", Status: "ARRIVED", Detail: "Arrived at destination country"},
		{Timestamp: "2025-12-10T08:30:00Z", Location: "London Heathrow, GB", Status: "CUSTOMS_HOLD", Detail: "Held by customs for inspection"},
	},
	"9400111899223856923412": {
		{Timestamp: "2025-12-02T12:00:00Z", Location: "Dallas, TX", Status: "PICKED_UP", Detail: "USPS in possession of item"},
		{Timestamp: "2025-12-05T06:45:00Z", Location: "Austin, TX", Status: "OUT_FOR_DELIVERY", Detail: "Out for delivery"},
		{Timestamp: "2025-12-10T14:22:00Z", Location: "Austin, TX", Status: "DELIVERED", Detail: "Delivered, front door"},
	},
	"7489 2211 0045": {
		{Timestamp: "2025-12-11T16:00:00Z", Location: "Reno, NV", Status: "PICKED_UP", Detail: "Picked up"},
		{Timestamp: "2025-12-14T03:10:00Z", Location: "Salt Lake City, UT", Status: "DELAYED", Detail: "Weather delay"},
	},
}

var fixtureWarehouses = []Warehouse{
	{ID: "WH-EAST", Name: "East Coast Fulfilment", City: "Newark, NJ", Region: "Northeast", Capacity: 120000, Status: "operational"},
	{ID: "WH-CENTRAL", Name: "Central Fulfilment", City: "Dallas, TX", Region: "South Central", Capacity: 90000, Status: "operational"},
	{ID: "WH-WEST", Name: "West Coast Fulfilment", City: "Reno, NV", Region: "West", Capacity: 80000, Status: "reduced_capacity"},
}

var fixtureInventory = map[string][]StockLevel{
	"SKU-HEADPHONES-01": {{WarehouseID: "WH-EAST", Quantity: 42}, {WarehouseID: "WH-CENTRAL", Quantity: 17}, {WarehouseID: "WH-WEST", Quantity: 0}},
	"SKU-KEYBOARD-02":   {{WarehouseID: "WH-EAST", Quantity: 8}, {WarehouseID: "WH-CENTRAL", Quantity: 55}, {WarehouseID: "WH-WEST", Quantity: 21}},
	"SKU-MONITOR-27":    {{WarehouseID: "WH-EAST", Quantity: 5}, {WarehouseID: "WH-CENTRAL", Quantity: 0}, {WarehouseID: "WH-WEST", Quantity: 12}},
	"SKU-CHARGER-65W":   {{WarehouseID: "WH-EAST", Quantity: 230}, {WarehouseID: "WH-CENTRAL", Quantity: 190}, {WarehouseID: "WH-WEST", Quantity: 140}},
	"SKU-BACKPACK-03":   {{WarehouseID: "WH-EAST", Quantity: 0}, {WarehouseID: "WH-CENTRAL", Quantity: 3}, {WarehouseID: "WH-WEST", Quantity: 64}},
}

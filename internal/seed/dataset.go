package seed

import (
	"fmt"
	"strings"
	"time"
)

// Table is one ERP table's rows in insert order. Primary keys are explicit so
// foreign keys can be wired without reading back generated ids.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Dataset is the whole demo dataset in foreign-key order.
type Dataset struct {
	Tables []Table
}

func (d Dataset) Table(name string) (Table, bool) {
	for _, table := range d.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}

// Counts returns rows per table.
func (d Dataset) Counts() map[string]int {
	counts := make(map[string]int, len(d.Tables))
	for _, table := range d.Tables {
		counts[table.Name] = len(table.Rows)
	}
	return counts
}

type site struct {
	code, name, address, city, country, timeZone string
}

var sites = []site{
	{"NYC", "New York HQ", "350 5th Ave", "New York", "USA", "America/New_York"},
	{"SFO", "San Francisco Branch", "1 Market St", "San Francisco", "USA", "America/Los_Angeles"},
	{"LON", "London Office", "221B Baker St", "London", "UK", "Europe/London"},
	{"BER", "Berlin Hub", "Pariser Platz", "Berlin", "Germany", "Europe/Berlin"},
	{"TOK", "Tokyo DC", "1-1 Chiyoda", "Tokyo", "Japan", "Asia/Tokyo"},
}

type party struct {
	code, name, email, phone, address, city, country string
}

var vendors = []party{
	{"VEND-ACME", "ACME Supplies", "sales@acme.test", "+1-212-000-0000", "100 Main St", "New York", "USA"},
	{"VEND-GLOB", "Global Industrial", "hello@glob.test", "+1-415-000-0000", "200 Market St", "San Francisco", "USA"},
	{"VEND-OMEG", "Omega Tools", "contact@omega.test", "+44-20-0000-0001", "10 Fleet St", "London", "UK"},
	{"VEND-BER1", "Berliner Technik", "verkauf@ber1.test", "+49-30-0000-0002", "Unter den Linden 5", "Berlin", "Germany"},
	{"VEND-TOK1", "Tokyo Parts Co.", "sales@tok1.test", "+81-3-0000-0003", "2-2-2 Shibuya", "Tokyo", "Japan"},
	{"VEND-NOVA", "Nova Components", "hi@nova.test", "+1-917-000-0004", "5 Broadway", "New York", "USA"},
	{"VEND-PACF", "Pacific Gear", "sales@pacific.test", "+1-650-000-0005", "600 Embarcadero", "San Francisco", "USA"},
}

var customers = []party{
	{"CUST-ALPHA", "Alpha Corp", "ap@alpha.test", "+1-646-111-1111", "10 Alpha Rd", "New York", "USA"},
	{"CUST-BETA", "Beta LLC", "ap@beta.test", "+1-628-222-2222", "20 Beta Ave", "San Francisco", "USA"},
	{"CUST-GAMMA", "Gamma Industries", "ap@gamma.test", "+44-20-1234-5678", "30 Gamma St", "London", "UK"},
	{"CUST-DELTA", "Delta GmbH", "ap@delta.test", "+49-30-2345-6789", "40 Delta Platz", "Berlin", "Germany"},
	{"CUST-EPS", "Epsilon KK", "ap@epsilon.test", "+81-3-4567-8901", "50 Epsilon Dori", "Tokyo", "Japan"},
	{"CUST-OMEGA", "Omega Retail", "ap@omegaretail.test", "+1-212-555-0100", "60 Omega Rd", "New York", "USA"},
	{"CUST-SIGMA", "Sigma Stores", "ap@sigma.test", "+1-415-555-0101", "70 Sigma Blvd", "San Francisco", "USA"},
	{"CUST-THETA", "Theta BV", "ap@theta.test", "+31-20-555-0102", "80 Theta Straat", "Amsterdam", "Netherlands"},
	{"CUST-LAMBDA", "Lambda SA", "ap@lambda.test", "+33-1-555-0103", "90 Lambda Rue", "Paris", "France"},
	{"CUST-PI", "Pi SpA", "ap@pi.test", "+39-06-555-0104", "100 Pi Via", "Rome", "Italy"},
}

type item struct {
	code, name, category, uom string
}

var items = []item{
	{"ITM-100", "Widget A", "Widgets", "EA"},
	{"ITM-200", "Gadget B", "Gadgets", "EA"},
	{"ITM-300", "Spare Part C", "Parts", "EA"},
	{"ITM-400", "Widget Pro", "Widgets", "EA"},
	{"ITM-401", "Widget Mini", "Widgets", "EA"},
	{"ITM-402", "Widget Ultra", "Widgets", "EA"},
	{"ITM-410", "Gadget Lite", "Gadgets", "EA"},
	{"ITM-411", "Gadget Max", "Gadgets", "EA"},
	{"ITM-412", "Gadget Plus", "Gadgets", "EA"},
	{"ITM-420", "Part D", "Parts", "EA"},
	{"ITM-421", "Part E", "Parts", "EA"},
	{"ITM-422", "Part F", "Parts", "EA"},
	{"ITM-430", "Component X", "Components", "EA"},
	{"ITM-431", "Component Y", "Components", "EA"},
	{"ITM-432", "Component Z", "Components", "EA"},
	{"ITM-440", "Consumable A", "Consumables", "BX"},
	{"ITM-441", "Consumable B", "Consumables", "BX"},
	{"ITM-442", "Consumable C", "Consumables", "BX"},
	{"ITM-450", "Spare Kit 1", "Kits", "KT"},
	{"ITM-451", "Spare Kit 2", "Kits", "KT"},
}

// Sites sorted by code, used for the asset cycles.
var sortedSiteCodes = []string{"BER", "LON", "NYC", "SFO", "TOK"}

// builder hands out ids the way AUTOINCREMENT does on an empty database.
type builder struct {
	siteID      map[string]int64
	warehouseID map[string]int64
	aisleAID    map[string]int64
	aisleBID    map[string]int64
	vendorID    map[string]int64
	customerID  map[string]int64
	itemID      map[string]int64
	locationIDs []int64
	assetIDs    []int64
	dataset     Dataset
}

// Generate builds the deterministic ERP demo dataset.
func Generate() Dataset {
	b := &builder{
		siteID:      map[string]int64{},
		warehouseID: map[string]int64{},
		aisleAID:    map[string]int64{},
		aisleBID:    map[string]int64{},
		vendorID:    map[string]int64{},
		customerID:  map[string]int64{},
		itemID:      map[string]int64{},
	}
	b.sites()
	b.locations()
	b.vendors()
	b.customers()
	b.items()
	b.assets()
	b.bills()
	poIDs := b.purchaseOrders()
	b.purchaseOrderLines(poIDs)
	soIDs := b.salesOrders()
	b.salesOrderLines(soIDs)
	b.assetTransactions()
	return b.dataset
}

func (b *builder) add(table Table) {
	b.dataset.Tables = append(b.dataset.Tables, table)
}

func (b *builder) sites() {
	table := Table{Name: "Sites", Columns: []string{"SiteId", "SiteCode", "SiteName", "AddressLine1", "City", "Country", "TimeZone"}}
	for i, s := range sites {
		id := int64(i + 1)
		b.siteID[s.code] = id
		table.Rows = append(table.Rows, []any{id, s.code, s.name, s.address, s.city, s.country, s.timeZone})
	}
	b.add(table)
}

func (b *builder) locations() {
	table := Table{Name: "Locations", Columns: []string{"LocationId", "SiteId", "LocationCode", "LocationName", "ParentLocationId"}}
	var id int64
	for _, s := range sites {
		siteID := b.siteID[s.code]
		id++
		warehouse := id
		b.warehouseID[s.code] = warehouse
		table.Rows = append(table.Rows, []any{warehouse, siteID, s.code + "-WH", s.code + " Warehouse", nil})
		id++
		b.aisleAID[s.code] = id
		table.Rows = append(table.Rows, []any{id, siteID, s.code + "-WH-A1", s.code + " Aisle A1", warehouse})
		id++
		b.aisleBID[s.code] = id
		table.Rows = append(table.Rows, []any{id, siteID, s.code + "-WH-B1", s.code + " Aisle B1", warehouse})
	}
	for i := int64(1); i <= id; i++ {
		b.locationIDs = append(b.locationIDs, i)
	}
	b.add(table)
}

func (b *builder) vendors() {
	table := Table{Name: "Vendors", Columns: []string{"VendorId", "VendorCode", "VendorName", "Email", "Phone", "AddressLine1", "City", "Country"}}
	for i, v := range vendors {
		id := int64(i + 1)
		b.vendorID[v.code] = id
		table.Rows = append(table.Rows, []any{id, v.code, v.name, v.email, v.phone, v.address, v.city, v.country})
	}
	b.add(table)
}

func (b *builder) customers() {
	table := Table{Name: "Customers", Columns: []string{"CustomerId", "CustomerCode", "CustomerName", "Email", "Phone", "BillingAddress1", "BillingCity", "BillingCountry"}}
	for i, c := range customers {
		id := int64(i + 1)
		b.customerID[c.code] = id
		table.Rows = append(table.Rows, []any{id, c.code, c.name, c.email, c.phone, c.address, c.city, c.country})
	}
	b.add(table)
}

func (b *builder) items() {
	table := Table{Name: "Items", Columns: []string{"ItemId", "ItemCode", "ItemName", "Category", "UnitOfMeasure"}}
	for i, it := range items {
		id := int64(i + 1)
		b.itemID[it.code] = id
		table.Rows = append(table.Rows, []any{id, it.code, it.name, it.category, it.uom})
	}
	b.add(table)
}

func (b *builder) assets() {
	table := Table{Name: "Assets", Columns: []string{"AssetId", "AssetTag", "AssetName", "SiteId", "LocationId", "SerialNumber", "Category", "Status", "Cost", "PurchaseDate", "VendorId"}}
	rows := [][]any{
		{"AST-0001", "Forklift 1", b.siteID["NYC"], b.aisleAID["NYC"], "SN-FL-001", "Vehicle", "Active", 12500.0, isoDate(2024, 5, 1), b.vendorID["VEND-ACME"]},
		{"AST-0002", "Conveyor A", b.siteID["SFO"], b.aisleBID["SFO"], "SN-CNV-101", "Equipment", "Active", 8500.0, isoDate(2024, 6, 15), b.vendorID["VEND-GLOB"]},
		{"AST-0003", "Pallet Jack", b.siteID["NYC"], b.warehouseID["NYC"], "SN-PJ-900", "Tool", "Maintenance", 600.0, isoDate(2024, 7, 20), b.vendorID["VEND-ACME"]},
	}

	categories := []string{"Vehicle", "Equipment", "Tool", "IT", "Furniture"}
	statuses := []string{"Active", "Maintenance", "Inactive"}
	vendorCycle := make([]int64, 0, len(vendors))
	for _, v := range vendors {
		vendorCycle = append(vendorCycle, b.vendorID[v.code])
	}
	siteCycle := make([]int64, 0, len(sortedSiteCodes))
	var locationCycle []int64
	for _, code := range sortedSiteCodes {
		siteCycle = append(siteCycle, b.siteID[code])
		locationCycle = append(locationCycle, b.warehouseID[code], b.aisleAID[code], b.aisleBID[code])
	}

	const baseNumber = 4
	for i := 0; len(rows) < 30; i++ {
		rows = append(rows, []any{
			fmt.Sprintf("AST-%04d", baseNumber+i),
			fmt.Sprintf("Asset %d", baseNumber+i),
			siteCycle[i%len(siteCycle)],
			locationCycle[i%len(locationCycle)],
			fmt.Sprintf("SN-%d", 1000+i),
			categories[i%len(categories)],
			statuses[i%len(statuses)],
			float64(500 + (i*137)%15000),
			isoDate(2024+(i/12)%2, i%12+1, i%27+1),
			vendorCycle[i%len(vendorCycle)],
		})
	}

	for i, row := range rows {
		id := int64(i + 1)
		b.assetIDs = append(b.assetIDs, id)
		table.Rows = append(table.Rows, append([]any{id}, row...))
	}
	b.add(table)
}

func (b *builder) bills() {
	table := Table{Name: "Bills", Columns: []string{"BillId", "VendorId", "BillNumber", "BillDate", "DueDate", "TotalAmount", "Currency", "Status"}}
	rows := [][]any{
		{b.vendorID["VEND-ACME"], "BILL-1001", isoDate(2024, 5, 5), isoDate(2024, 6, 5), 12500.0, "USD", "Open"},
		{b.vendorID["VEND-GLOB"], "BILL-2001", isoDate(2024, 6, 20), isoDate(2024, 7, 20), 8500.0, "USD", "Open"},
	}
	more := []string{"VEND-OMEG", "VEND-BER1", "VEND-TOK1", "VEND-NOVA", "VEND-PACF", "VEND-ACME", "VEND-GLOB", "VEND-OMEG"}
	for n, code := range more {
		i := n + 1
		day := i%27 + 1
		due := day + 20
		if due > 28 {
			due = 28
		}
		status := "Open"
		if i%3 == 0 {
			status = "Closed"
		}
		rows = append(rows, []any{
			b.vendorID[code],
			fmt.Sprintf("BILL-%d", 3000+i),
			isoDate(2024+i%2, i%12+1, day),
			isoDate(2024+i%2, i%12+1, due),
			float64(2000 + i*450),
			"USD",
			status,
		})
	}
	for i, row := range rows {
		table.Rows = append(table.Rows, append([]any{int64(i + 1)}, row...))
	}
	b.add(table)
}

func (b *builder) purchaseOrders() []int64 {
	table := Table{Name: "PurchaseOrders", Columns: []string{"POId", "PONumber", "VendorId", "PODate", "Status", "SiteId"}}
	rows := [][]any{
		{"PO-10001", b.vendorID["VEND-ACME"], isoDate(2024, 5, 1), "Open", b.siteID["NYC"]},
		{"PO-10002", b.vendorID["VEND-GLOB"], isoDate(2024, 6, 10), "Closed", b.siteID["SFO"]},
	}
	poVendors := []string{"VEND-OMEG", "VEND-BER1", "VEND-TOK1", "VEND-NOVA", "VEND-PACF", "VEND-ACME"}
	poSites := []string{"NYC", "SFO", "LON", "BER", "TOK", "NYC"}
	for i := 0; i < 6; i++ {
		status := "Open"
		if i%2 != 0 {
			status = "Closed"
		}
		rows = append(rows, []any{
			fmt.Sprintf("PO-100%02d", 3+i),
			b.vendorID[poVendors[i]],
			isoDate(2024+i%2, i%12+1, i%27+1),
			status,
			b.siteID[poSites[i]],
		})
	}
	var ids []int64
	for i, row := range rows {
		id := int64(i + 1)
		ids = append(ids, id)
		table.Rows = append(table.Rows, append([]any{id}, row...))
	}
	b.add(table)
	return ids
}

func (b *builder) purchaseOrderLines(poIDs []int64) {
	table := Table{Name: "PurchaseOrderLines", Columns: []string{"POLineId", "POId", "LineNumber", "ItemId", "ItemCode", "Description", "Quantity", "UnitPrice"}}
	rows := [][]any{
		{poIDs[0], int64(1), b.itemID["ITM-100"], "ITM-100", "Widget A bulk", 100.0, 25.50},
		{poIDs[0], int64(2), b.itemID["ITM-300"], "ITM-300", "Spare Part C", 50.0, 5.75},
		{poIDs[1], int64(1), b.itemID["ITM-200"], "ITM-200", "Gadget B", 20.0, 99.99},
	}
	codes := []string{
		"ITM-400", "ITM-401", "ITM-402", "ITM-410", "ITM-411", "ITM-412",
		"ITM-420", "ITM-421", "ITM-422", "ITM-430", "ITM-431", "ITM-432",
		"ITM-440", "ITM-441", "ITM-442", "ITM-450", "ITM-451",
	}
	for idx, poID := range poIDs[2:] {
		lines := 2 + idx%2
		for j := 0; j < lines; j++ {
			code := codes[(idx+j)%len(codes)]
			rows = append(rows, []any{
				poID,
				int64(j + 1),
				b.itemID[code],
				code,
				code + " bulk",
				float64(10 + ((idx+j)*5)%120),
				float64(5 + ((idx+j)*3)%200),
			})
		}
	}
	for i, row := range rows {
		table.Rows = append(table.Rows, append([]any{int64(i + 1)}, row...))
	}
	b.add(table)
}

func (b *builder) salesOrders() []int64 {
	table := Table{Name: "SalesOrders", Columns: []string{"SOId", "SONumber", "CustomerId", "SODate", "Status", "SiteId"}}
	rows := [][]any{
		{"SO-50001", b.customerID["CUST-ALPHA"], isoDate(2024, 7, 1), "Open", b.siteID["NYC"]},
		{"SO-50002", b.customerID["CUST-BETA"], isoDate(2024, 7, 15), "Open", b.siteID["SFO"]},
	}
	soCustomers := []string{"CUST-GAMMA", "CUST-DELTA", "CUST-EPS", "CUST-OMEGA", "CUST-SIGMA", "CUST-THETA", "CUST-LAMBDA", "CUST-PI"}
	soSites := []string{"LON", "BER", "TOK", "NYC", "SFO", "LON", "BER", "TOK"}
	for i := 0; i < 8; i++ {
		status := "Open"
		if i%3 == 0 {
			status = "Closed"
		}
		rows = append(rows, []any{
			fmt.Sprintf("SO-500%02d", 3+i),
			b.customerID[soCustomers[i]],
			isoDate(2024+i%2, i%12+1, i%27+1),
			status,
			b.siteID[soSites[i]],
		})
	}
	var ids []int64
	for i, row := range rows {
		id := int64(i + 1)
		ids = append(ids, id)
		table.Rows = append(table.Rows, append([]any{id}, row...))
	}
	b.add(table)
	return ids
}

func (b *builder) salesOrderLines(soIDs []int64) {
	table := Table{Name: "SalesOrderLines", Columns: []string{"SOLineId", "SOId", "LineNumber", "ItemId", "ItemCode", "Description", "Quantity", "UnitPrice"}}
	rows := [][]any{
		{soIDs[0], int64(1), b.itemID["ITM-100"], "ITM-100", "Widget A", 10.0, 45.00},
		{soIDs[0], int64(2), b.itemID["ITM-300"], "ITM-300", "Spare Part C", 5.0, 9.50},
		{soIDs[1], int64(1), b.itemID["ITM-200"], "ITM-200", "Gadget B", 3.0, 149.99},
	}
	codes := []string{
		"ITM-400", "ITM-401", "ITM-410", "ITM-411", "ITM-420", "ITM-430",
		"ITM-431", "ITM-440", "ITM-441", "ITM-450",
	}
	for idx, soID := range soIDs[2:] {
		lines := 2 + idx%2
		for j := 0; j < lines; j++ {
			code := codes[(idx+j)%len(codes)]
			rows = append(rows, []any{
				soID,
				int64(j + 1),
				b.itemID[code],
				code,
				code,
				float64(1 + (idx+j)%9),
				float64(10 + ((idx+j)*7)%250),
			})
		}
	}
	for i, row := range rows {
		table.Rows = append(table.Rows, append([]any{int64(i + 1)}, row...))
	}
	b.add(table)
}

func (b *builder) assetTransactions() {
	table := Table{Name: "AssetTransactions", Columns: []string{"AssetTxnId", "AssetId", "FromLocationId", "ToLocationId", "TxnType", "Quantity", "Note"}}
	var rows [][]any
	for i, assetID := range b.assetIDs[:10] {
		rows = append(rows, []any{assetID, nil, b.locationIDs[i%len(b.locationIDs)], "Receive", int64(1), "Initial receipt"})
	}
	types := []string{"Move", "Adjust", "Repair"}
	for idx := 0; len(rows) < 50; idx++ {
		txnType := types[idx%len(types)]
		rows = append(rows, []any{
			b.assetIDs[idx%len(b.assetIDs)],
			b.locationIDs[(idx+1)%len(b.locationIDs)],
			b.locationIDs[(idx+2)%len(b.locationIDs)],
			txnType,
			int64(1),
			fmt.Sprintf("Auto %s #%d", strings.ToLower(txnType), idx+1),
		})
	}
	for i, row := range rows {
		table.Rows = append(table.Rows, append([]any{int64(i + 1)}, row...))
	}
	b.add(table)
}

func isoDate(year, month, day int) string {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}

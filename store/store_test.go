package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/contextbench/oracle"
)

func TestShipping_FixtureOrders(t *testing.T) {
	s := NewShipping(DefaultSeed)

	o, ok := s.Order("84721")
	require.True(t, ok)
	assert.Equal(t, OrderInTransit, o.Status)
	assert.Equal(t, "1Z999AA10123456784", o.TrackingNumber)
	assert.Equal(t, "2025-12-22", o.EstimatedDelivery)

	o, ok = s.Order("#23456")
	require.True(t, ok, "leading # is ignored")
	assert.Equal(t, "ROYAL_MAIL", o.Carrier)

	_, ok = s.Order("00000")
	assert.False(t, ok)
}

func TestShipping_ReturnedRecordsDoNotAlias(t *testing.T) {
	s := NewShipping(DefaultSeed)
	o, _ := s.Order("84721")
	o.Items[0].Quantity = 99

	again, _ := s.Order("84721")
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestShipping_Shipment(t *testing.T) {
	s := NewShipping(DefaultSeed)
	sh, ok := s.Shipment("23456")
	require.True(t, ok)
	assert.Equal(t, "2025-12-16", sh.OriginalETA)
	assert.Equal(t, "2025-12-20", sh.EstimatedDelivery)
	assert.Contains(t, sh.DelayReason, "customs")

	_, ok = s.Shipment("67890")
	assert.False(t, ok, "processing orders have no shipment")
}

func TestShipping_IncidentsByDate(t *testing.T) {
	s := NewShipping(DefaultSeed)

	today, ok := s.Incidents("today")
	require.True(t, ok)
	require.NotEmpty(t, today)
	assert.Equal(t, "ROYAL_MAIL", today[0].Carrier)
	assert.Equal(t, "customs_delay", today[0].Type)

	explicit, ok := s.Incidents(Today)
	require.True(t, ok)
	assert.Equal(t, today, explicit)

	_, ok = s.Incidents("1999-01-01")
	assert.False(t, ok)
}

func TestShipping_TrackingAscending(t *testing.T) {
	s := NewShipping(DefaultSeed)
	scans, ok := s.Tracking("1Z999AA10123456784")
	require.True(t, ok)
	require.Len(t, scans, 3)
	for i := 1; i < len(scans); i++ {
		assert.LessOrEqual(t, scans[i-1].Timestamp, scans[i].Timestamp)
	}
	assert.Equal(t, "LABEL_CREATED", scans[0].Status)

	_, ok = s.Tracking("TRK99002ABC")
	assert.False(t, ok)
}

func TestShipping_Lookups(t *testing.T) {
	s := NewShipping(DefaultSeed)

	c, ok := s.CustomerByEmail("  Alice.Nguyen@Example.com ")
	require.True(t, ok)
	assert.Equal(t, "C-1001", c.ID)

	carrier, ok := s.Carrier("royal mail")
	require.True(t, ok)
	assert.True(t, carrier.International)

	w, ok := s.Warehouse("wh-west")
	require.True(t, ok)
	assert.Equal(t, "reduced_capacity", w.Status)

	levels, ok := s.Inventory("sku-monitor-27")
	require.True(t, ok)
	assert.Len(t, levels, 3)

	assert.NotEmpty(t, s.OrdersForCustomer("C-1002"))
	assert.Equal(t, []string{"DHL", "FEDEX", "ROYAL_MAIL", "UPS", "USPS"}, s.CarrierCodes())
}

func TestShipping_SeededFillerIsDeterministic(t *testing.T) {
	a := NewShipping(7)
	b := NewShipping(7)
	c := NewShipping(8)

	assert.Equal(t, len(fixtureOrders)+fillerOrders, a.OrderCount())
	assert.Equal(t, a.orders, b.orders)
	assert.NotEqual(t, a.orders, c.orders)

	for _, o := range fixtureOrders {
		got, ok := c.Order(o.ID)
		require.True(t, ok)
		assert.Equal(t, o.Status, got.Status, "fixtures survive any seed")
	}
}

func TestFraudScore(t *testing.T) {
	assert.Equal(t, FraudScore("C-1001"), FraudScore("C-1001"))
	assert.GreaterOrEqual(t, FraudScore("C-1002"), 0)
	assert.Less(t, FraudScore("C-1002"), 100)
}

func TestResearch_TopicsMatchBaseFacts(t *testing.T) {
	r := NewResearch()
	for _, d := range oracle.Domains() {
		topic, ok := r.Topic(string(d))
		require.True(t, ok, d)
		f := oracle.BaseFacts[d]
		assert.Equal(t, f.Initial, topic.MarketSizeBn)
		assert.Equal(t, f.GrowthRate, topic.GrowthRate)
		assert.Equal(t, f.RiskFactor, topic.RiskFactor)
		assert.Equal(t, f.InvestmentBn, topic.InvestmentBn)
		assert.Len(t, topic.AnnualBenefits, oracle.DefaultYears)
		assert.Len(t, topic.ExpertIDs, oracle.ExpertsPerDomain)
		assert.Contains(t, topic.Summary, "expert_2")
	}

	_, ok := r.Topic("Renewable Energy")
	assert.True(t, ok, "spaces normalize to underscores")
	_, ok = r.Topic("space_mining")
	assert.False(t, ok)
}

func TestResearch_ExpertsAndCases(t *testing.T) {
	r := NewResearch()

	e, ok := r.Expert("renewable_energy", "expert_2")
	require.True(t, ok)
	want, _ := oracle.New().Scalar(oracle.RenewableEnergy, oracle.MetricExpertForecast, oracle.Params{Index: 2})
	assert.Equal(t, want, e.ForecastGrowth)

	_, ok = r.Expert("renewable_energy", "expert_9")
	assert.False(t, ok)

	c, ok := r.CaseStudy("artificial_intelligence", "case_3")
	require.True(t, ok)
	wantROI, _ := oracle.New().Scalar(oracle.ArtificialIntelligence, oracle.MetricCaseStudyROI, oracle.Params{Index: 3})
	assert.Equal(t, wantROI, c.ROIPercent)
}

func TestResearch_YearData(t *testing.T) {
	r := NewResearch()

	y, ok := r.YearData("cybersecurity", oracle.BaseYear)
	require.True(t, ok)
	assert.Equal(t, 220.0, y.MarketSizeBn)
	assert.False(t, y.Projected)

	y, ok = r.YearData("cybersecurity", 2030)
	require.True(t, ok)
	assert.True(t, y.Projected)
	assert.Greater(t, y.MarketSizeBn, 220.0)

	_, ok = r.YearData("cybersecurity", 1990)
	assert.False(t, ok)
}

func TestFinance(t *testing.T) {
	f := NewFinance()

	_, ok := f.Quote("QDYN")
	assert.False(t, ok, "QDYN does not exist")

	q, ok := f.Quote("$nvtx")
	require.True(t, ok)
	assert.Equal(t, Today, q.AsOf)

	c, ok := f.Company("SOLR")
	require.True(t, ok)
	assert.Equal(t, "energy", c.Sector)

	s, ok := f.Sector("Technology")
	require.True(t, ok)
	assert.Equal(t, []string{"CYGD", "NVTX", "QBIT"}, s.Tickers)
	assert.InDelta(t, (38.2+45.7)/2, s.AvgPERatio, 0.01, "unprofitable companies are excluded from the P/E average")

	_, ok = f.Sector("crypto")
	assert.False(t, ok)
	assert.Contains(t, f.SectorNames(), "healthcare")
}

func TestNew(t *testing.T) {
	s := New(DefaultSeed)
	assert.NotNil(t, s.Shipping)
	assert.NotNil(t, s.Research)
	assert.NotNil(t, s.Finance)
	assert.Equal(t, "2025-12-03", ResolveDate("2025-12-03"))
	assert.Equal(t, Today, ResolveDate(""))
}

package rest

import "context"

// IndicatorService covers the market cycle indicator endpoints. These are
// Bitcoin-wide series with no query parameters.
type IndicatorService struct {
	client *Client
}

// FearGreed is one day of the fear and greed index.
type FearGreed struct {
	Time  int64   `json:"t"`
	Value float64 `json:"value"`
	Price float64 `json:"price"`
}

// FearGreedHistory returns the fear and greed index history.
func (s *IndicatorService) FearGreedHistory(ctx context.Context) ([]FearGreed, error) {
	var out []FearGreed
	if err := s.client.get(ctx, "/api/index/fear-greed-history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AHR999 is one day of the ahr999 accumulation indicator.
type AHR999 struct {
	Date   string  `json:"date"`
	Avg    float64 `json:"avg"`
	AHR999 float64 `json:"ahr999"`
	Value  string  `json:"value"`
}

// AHR999History returns the ahr999 indicator history.
func (s *IndicatorService) AHR999History(ctx context.Context) ([]AHR999, error) {
	var out []AHR999
	if err := s.client.get(ctx, "/api/index/ahr999", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PuellMultiple is one day of the puell multiple mining indicator.
type PuellMultiple struct {
	Time          int64   `json:"createTime"`
	Price         float64 `json:"price"`
	PuellMultiple float64 `json:"puellMultiple"`
}

// PuellMultipleHistory returns the puell multiple history.
func (s *IndicatorService) PuellMultipleHistory(ctx context.Context) ([]PuellMultiple, error) {
	var out []PuellMultiple
	if err := s.client.get(ctx, "/api/index/puell-multiple", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PiCycleTop is one day of the pi cycle top indicator's moving averages.
type PiCycleTop struct {
	Time     int64   `json:"createTime"`
	Price    float64 `json:"price"`
	MA110    float64 `json:"ma110"`
	MA350Mu2 float64 `json:"ma350Mu2"`
}

// PiCycleTopHistory returns the pi cycle top indicator history.
func (s *IndicatorService) PiCycleTopHistory(ctx context.Context) ([]PiCycleTop, error) {
	var out []PiCycleTop
	if err := s.client.get(ctx, "/api/index/pi", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PeakIndicator is one signal of the bull market peak indicator set.
type PeakIndicator struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	TargetValue string `json:"targetValue"`
	PrevValue   string `json:"prevValue"`
	Change      string `json:"change"`
	Hit         bool   `json:"hit"`
}

// BullMarketPeakIndicators returns the current state of the bull market peak
// signal set.
func (s *IndicatorService) BullMarketPeakIndicators(ctx context.Context) ([]PeakIndicator, error) {
	var out []PeakIndicator
	if err := s.client.get(ctx, "/api/bull-market-peak-indicator", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

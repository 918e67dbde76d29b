// Package civic fetches the civic calendars used to enrich traffic records:
// school vacation periods and public holidays.
package civic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"golang.org/x/text/unicode/norm"
)

var ErrMissingURL = errors.New("calendar URL is not configured")

// Client reads vacation and holiday calendars over HTTP.
type Client struct {
	vacationsURL string
	holidaysURL  string
	location     string
	zone         *time.Location
	httpClient   *http.Client
}

// NewClient creates a calendar client. Vacation periods are restricted to location
// (a school-zone city such as "Rennes") and converted to zone.
func NewClient(vacationsURL, holidaysURL, location string, zone *time.Location) *Client {
	if zone == nil {
		zone = time.UTC
	}
	return &Client{
		vacationsURL: vacationsURL,
		holidaysURL:  holidaysURL,
		location:     location,
		zone:         zone,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// vacationPageSize is the page size of the vacations dataset query.
const vacationPageSize = 100

type vacationsResponse struct {
	TotalCount int `json:"total_count"`
	Results    []struct {
		Vacation  string `json:"vacation"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	} `json:"results"`
}

// Vacations returns the school vacation periods of the configured location,
// ordered by start date. Pages are requested until total_count rows are read.
// A row with an unparseable date fails the whole call.
func (c *Client) Vacations(ctx context.Context) ([]coverage.VacationPeriod, error) {
	if c.vacationsURL == "" {
		return nil, fmt.Errorf("vacations: %w", ErrMissingURL)
	}

	var periods []coverage.VacationPeriod
	for offset := 0; ; {
		params := url.Values{}
		params.Set("select", "description AS vacation, start_date, end_date")
		params.Set("refine", "location:"+c.location)
		params.Set("exclude", "population:Enseignants")
		params.Set("limit", strconv.Itoa(vacationPageSize))
		params.Set("offset", strconv.Itoa(offset))

		var resp vacationsResponse
		if err := c.getJSON(ctx, c.vacationsURL+"?"+params.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("vacations: %w", err)
		}

		for i, r := range resp.Results {
			start, err := coverage.ParseTimestamp(r.StartDate)
			if err != nil {
				return nil, fmt.Errorf("vacations: row %d: start_date %q: %w", offset+i, r.StartDate, err)
			}
			end, err := coverage.ParseTimestamp(r.EndDate)
			if err != nil {
				return nil, fmt.Errorf("vacations: row %d: end_date %q: %w", offset+i, r.EndDate, err)
			}
			periods = append(periods, coverage.VacationPeriod{
				Description: NormalizeLabel(r.Vacation),
				StartDate:   start.In(c.zone),
				EndDate:     end.In(c.zone),
			})
		}

		offset += len(resp.Results)
		if len(resp.Results) == 0 || offset >= resp.TotalCount {
			break
		}
	}

	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartDate.Before(periods[j].StartDate)
	})
	return periods, nil
}

// Calendars fetches both calendars. Either source failing, or not being
// configured, fails the call.
func (c *Client) Calendars(ctx context.Context) (coverage.PublicHolidays, []coverage.VacationPeriod, error) {
	holidays, err := c.PublicHolidays(ctx)
	if err != nil {
		return nil, nil, err
	}
	vacations, err := c.Vacations(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[civic] loaded %d public holidays and %d vacation periods", len(holidays), len(vacations))
	return holidays, vacations, nil
}

// PublicHolidays returns the public holiday calendar, a JSON object of day to label.
func (c *Client) PublicHolidays(ctx context.Context) (coverage.PublicHolidays, error) {
	if c.holidaysURL == "" {
		return nil, fmt.Errorf("public holidays: %w", ErrMissingURL)
	}

	var raw map[string]string
	if err := c.getJSON(ctx, c.holidaysURL, &raw); err != nil {
		return nil, fmt.Errorf("public holidays: %w", err)
	}

	holidays := make(coverage.PublicHolidays, len(raw))
	for day, label := range raw {
		d, err := time.Parse(coverage.DayLayout, day)
		if err != nil {
			return nil, fmt.Errorf("public holidays: invalid day %q: %w", day, err)
		}
		holidays[coverage.DayOf(d)] = NormalizeLabel(label)
	}
	return holidays, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[civic] GET %s error: %v", req.URL.Host, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	log.Printf("[civic] GET %s%s status=%d duration=%dms",
		req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start).Milliseconds())
	return nil
}

// NormalizeLabel returns label in Unicode NFC so that the same accented name
// coming from different sources compares equal.
func NormalizeLabel(label string) string {
	return norm.NFC.String(label)
}

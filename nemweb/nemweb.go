// Copyright (c) 2024 Akxen Labs

// Package nemweb downloads NEMDE casefile archives from the NEMWEB-style
// data archive: one ZIP per day holding one casefile per 5-minute dispatch
// interval.
package nemweb

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultBaseURL is the public NEMDE casefile archive root.
const DefaultBaseURL = "https://nemweb.com.au/Data_Archive/Wholesale_Electricity/NEMDE"

///////////////////////////////////////////////////////////////////////////////

// Client fetches casefile archives with retrying HTTP.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// NewClient returns a Client against the given archive root; an empty
// baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 4
	httpClient.Logger = nil
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ArchiveURL returns the daily ZIP location for a date:
// {base}/{yyyy}/NEMDE_{yyyy}_{mm}/NEMDE_Market_Data/NEMDE_Files/NemSpdOutputs_{yyyymmdd}_loaded.zip
func (c *Client) ArchiveURL(date time.Time) string {
	return fmt.Sprintf("%s/%04d/NEMDE_%04d_%02d/NEMDE_Market_Data/NEMDE_Files/NemSpdOutputs_%04d%02d%02d_loaded.zip",
		c.baseURL, date.Year(), date.Year(), int(date.Month()),
		date.Year(), int(date.Month()), date.Day())
}

// CasefileEntry is one extracted interval casefile.
type CasefileEntry struct {
	CaseID string // YYYYMMDDNNN, NNN = 1..288 interval ordinal
	Name   string // archive member name
	Data   []byte
}

// FetchArchive downloads and extracts the daily archive. Entries come back
// sorted by case id.
func (c *Client) FetchArchive(date time.Time) ([]CasefileEntry, error) {
	urlStr := c.ArchiveURL(date)
	resp, err := c.httpClient.Get(urlStr)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", urlStr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d %s fetching %s", resp.StatusCode, resp.Status, urlStr)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return extractArchive(body, date)
}

// FetchCasefile downloads the day's archive and returns one interval's
// casefile by case id.
func (c *Client) FetchCasefile(caseID string) ([]byte, error) {
	date, err := CaseDate(caseID)
	if err != nil {
		return nil, err
	}
	entries, err := c.FetchArchive(date)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.CaseID == caseID {
			return e.Data, nil
		}
	}
	return nil, fmt.Errorf("case %s not present in archive for %s", caseID, date.Format("2006-01-02"))
}

///////////////////////////////////////////////////////////////////////////////

// CaseIDForTime returns the case id of the dispatch interval ending at t.
// Interval 1 ends at 00:05 market time; times inside an interval round up
// to its end.
func CaseIDForTime(t time.Time) string {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	minutes := t.Sub(midnight).Minutes()
	interval := int(minutes+4) / 5
	if interval < 1 {
		interval = 1
	}
	if interval > 288 {
		interval = 288
	}
	return fmt.Sprintf("%s%03d", midnight.Format("20060102"), interval)
}

// CaseDate parses the date component of a YYYYMMDDNNN case id.
func CaseDate(caseID string) (time.Time, error) {
	if len(caseID) != 11 {
		return time.Time{}, fmt.Errorf("case id %q is not in YYYYMMDDNNN form", caseID)
	}
	return time.Parse("20060102", caseID[:8])
}

// CaseInterval returns the 1-based interval ordinal of a case id.
func CaseInterval(caseID string) (int, error) {
	if len(caseID) != 11 {
		return 0, fmt.Errorf("case id %q is not in YYYYMMDDNNN form", caseID)
	}
	n := 0
	for _, r := range caseID[8:] {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("case id %q has a non-numeric interval", caseID)
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > 288 {
		return 0, fmt.Errorf("case id %q interval %d out of range", caseID, n)
	}
	return n, nil
}

func extractArchive(body []byte, date time.Time) ([]CasefileEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	prefix := date.Format("20060102")
	var entries []CasefileEntry
	for _, f := range zr.File {
		caseID, ok := caseIDFromMember(f.Name, prefix)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening member %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading member %s: %w", f.Name, err)
		}
		entries = append(entries, CasefileEntry{CaseID: caseID, Name: f.Name, Data: data})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CaseID < entries[j].CaseID })
	return entries, nil
}

// caseIDFromMember pulls the YYYYMMDDNNN token out of an archive member
// name like "NEMSPDOutputs_2020110100100.loaded".
func caseIDFromMember(name, datePrefix string) (string, bool) {
	base := name
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	pos := strings.Index(base, datePrefix)
	if pos < 0 || pos+11 > len(base) {
		return "", false
	}
	caseID := base[pos : pos+11]
	for _, r := range caseID {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return caseID, true
}

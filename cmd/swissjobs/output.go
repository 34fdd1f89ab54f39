package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"swissjobs-utils/pkg/models"
	"swissjobs-utils/pkg/utils"
)

// writeSearchResponse renders a search result in the selected format.
func writeSearchResponse(w io.Writer, format string, resp *models.SearchResponse) error {
	switch format {
	case "json":
		return writeJSON(w, resp)
	case "csv":
		return writeListingsCSV(w, resp.Listings)
	case "table", "":
		return writeListingsTable(w, resp)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// writeListing renders a single listing.
func writeListing(w io.Writer, format string, listing *models.JobListing) error {
	switch format {
	case "json":
		return writeJSON(w, listing)
	case "csv":
		return writeListingsCSV(w, []models.JobListing{*listing})
	case "table", "":
		fmt.Fprintf(w, "ID:       %s\n", listing.ID)
		fmt.Fprintf(w, "Title:    %s\n", listing.Title)
		fmt.Fprintf(w, "Company:  %s\n", listing.CompanyName)
		fmt.Fprintf(w, "Location: %s %s (%s)\n", listing.Location.PostalCode, listing.Location.City, listing.Location.CantonCode)
		fmt.Fprintf(w, "Workload: %d-%d%%\n", listing.Employment.WorkloadMin, listing.Employment.WorkloadMax)
		if listing.PostedAt != nil {
			fmt.Fprintf(w, "Posted:   %s\n", listing.PostedAt.Format("2006-01-02"))
		}
		if listing.ExternalURL != "" {
			fmt.Fprintf(w, "Apply:    %s\n", listing.ExternalURL)
		}
		if listing.Description != "" {
			fmt.Fprintf(w, "\n%s\n", listing.Description)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJSONOrPlain prints JSON for -o json and calls plain otherwise.
func writeJSONOrPlain(w io.Writer, format string, v interface{}, plain func()) error {
	if format == "json" {
		return writeJSON(w, v)
	}
	plain()
	return nil
}

func writeListingsCSV(w io.Writer, listings []models.JobListing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "company", "city", "postal_code", "canton", "communal_code", "workload_min", "workload_max", "posted_at", "url"}); err != nil {
		return err
	}
	for _, l := range listings {
		posted := ""
		if l.PostedAt != nil {
			posted = l.PostedAt.Format("2006-01-02")
		}
		record := []string{
			l.ID, l.Title, l.CompanyName,
			l.Location.City, l.Location.PostalCode, l.Location.CantonCode, l.Location.CommunalCode,
			strconv.Itoa(l.Employment.WorkloadMin), strconv.Itoa(l.Employment.WorkloadMax),
			posted, l.ExternalURL,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeListingsTable(w io.Writer, resp *models.SearchResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tLOCATION\tWORKLOAD\tPOSTED")
	for _, l := range resp.Listings {
		posted := ""
		if l.PostedAt != nil {
			posted = l.PostedAt.Format("2006-01-02")
		}
		location := l.Location.City
		if l.Location.CantonCode != "" {
			location += " (" + l.Location.CantonCode + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d-%d%%\t%s\n",
			l.ID, truncate(l.Title, 40), truncate(l.CompanyName, 30), location,
			l.Employment.WorkloadMin, l.Employment.WorkloadMax, posted)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d listings (%d total on portal), %d pages in %s",
		len(resp.Listings), resp.TotalCount, resp.PagesFetched, utils.FormatDuration(resp.Elapsed))
	if resp.Termination.StoppedEarly {
		fmt.Fprintf(w, ", stopped early: %s", resp.Termination.Reason)
	}
	fmt.Fprintln(w)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swissjobs-utils/pkg/models"
)

var (
	searchQuery     string
	searchLocation  string
	searchCantons   []string
	searchCompany   string
	searchWorkMin   int
	searchWorkMax   int
	searchContract  string
	searchDays      int
	searchPageSize  int
	searchMaxPages  int
	searchMode      string
	searchLang      string
	searchSort      string
	searchStore     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search job listings",
	Example: `  swissjobs search -q "software engineer" --location "Zürich"
  swissjobs search -q golang --canton ZH --canton ZG --mode aggressive -o json
  swissjobs search --company "Acme AG" --store`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newEngine(searchStore)
		if err != nil {
			return err
		}
		defer cleanup()

		req := &models.SearchAPIRequest{
			SearchRequest: models.SearchRequest{
				Query:            searchQuery,
				Location:         searchLocation,
				CantonCodes:      searchCantons,
				CompanyName:      searchCompany,
				WorkloadMin:      searchWorkMin,
				WorkloadMax:      searchWorkMax,
				ContractType:     models.ContractType(searchContract),
				PostedWithinDays: searchDays,
				PageSize:         searchPageSize,
				Sort:             models.SortOrder(searchSort),
				Language:         models.Language(searchLang),
			},
			Mode:     searchMode,
			MaxPages: searchMaxPages,
			Store:    searchStore,
		}

		resp, err := svc.Search(context.Background(), req)
		if err != nil && (resp == nil || len(resp.Listings) == 0) {
			return err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: search ended early: %v\n", err)
		}

		return writeSearchResponse(os.Stdout, outputFormat, resp)
	},
}

func init() {
	flags := searchCmd.Flags()
	flags.StringVarP(&searchQuery, "query", "q", "", "free-text search query")
	flags.StringVarP(&searchLocation, "location", "l", "", "location name or postal code")
	flags.StringArrayVar(&searchCantons, "canton", nil, "canton code filter (repeatable)")
	flags.StringVar(&searchCompany, "company", "", "company name filter")
	flags.IntVar(&searchWorkMin, "workload-min", 0, "minimum workload percentage")
	flags.IntVar(&searchWorkMax, "workload-max", 0, "maximum workload percentage")
	flags.StringVar(&searchContract, "contract", "", "contract type: permanent, temporary or any")
	flags.IntVar(&searchDays, "days", 0, "only listings published within this many days")
	flags.IntVar(&searchPageSize, "page-size", 0, "results per page")
	flags.IntVar(&searchMaxPages, "max-pages", 0, "page fetch cap for this run")
	flags.StringVar(&searchMode, "mode", "", "acquisition mode: fast, stealth or aggressive")
	flags.StringVar(&searchLang, "lang", "", "result language: en, de, fr or it")
	flags.StringVar(&searchSort, "sort", "", "sort order: date_desc, date_asc or relevance")
	flags.BoolVar(&searchStore, "store", false, "persist results to the local listing store")
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchRequest mirrors the Inserate API request model.
type searchRequest struct {
	Query        string `json:"query,omitempty"`
	Location     string `json:"location,omitempty"`
	Radius       *int   `json:"radius,omitempty"`
	MinPrice     *int   `json:"min_price,omitempty"`
	MaxPrice     *int   `json:"max_price,omitempty"`
	PageCount    int    `json:"page_count,omitempty"`
	StrictSearch bool   `json:"strict_search,omitempty"`
}

// listing mirrors one entry of the Inserate API response data.
type listing struct {
	AdID            string  `json:"adid"`
	URL             string  `json:"url"`
	PreviewImageURL string  `json:"preview_image_url"`
	Title           string  `json:"title"`
	Price           string  `json:"price"`
	Description     string  `json:"description"`
	Distance        float64 `json:"distance"`
}

// searchResponse mirrors the Inserate API response model.
type searchResponse struct {
	Success bool      `json:"success"`
	Count   int       `json:"count"`
	Data    []listing `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("INSERATE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("INSERATE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "INSERATE_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"inserate",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_listings",
		mcp.WithDescription("Search classified listings on Kleinanzeigen and return id, title, price, distance, description and link for each result."),
		mcp.WithString("query",
			mcp.Description("Free-text keywords, e.g. 'fahrrad 28 zoll'"),
		),
		mcp.WithString("location",
			mcp.Description("Postcode or city to search around"),
		),
		mcp.WithNumber("radius",
			mcp.Description("Search radius in km around location"),
		),
		mcp.WithNumber("min_price",
			mcp.Description("Minimum price in euros"),
		),
		mcp.WithNumber("max_price",
			mcp.Description("Maximum price in euros"),
		),
		mcp.WithNumber("page_count",
			mcp.Description("Number of result pages to walk (default: 1)"),
		),
		mcp.WithBoolean("strict_search",
			mcp.Description("Drop pages where the site reports no exact matches"),
		),
	)
	s.AddTool(searchTool, handleSearchListings(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Inserate API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// optionalInt returns a pointer to the argument's value, or nil if absent.
func optionalInt(request mcp.CallToolRequest, key string) *int {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetInt(key, 0)
	return &v
}

func handleSearchListings(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := searchRequest{
			Query:        request.GetString("query", ""),
			Location:     request.GetString("location", ""),
			Radius:       optionalInt(request, "radius"),
			MinPrice:     optionalInt(request, "min_price"),
			MaxPrice:     optionalInt(request, "max_price"),
			PageCount:    request.GetInt("page_count", 0),
			StrictSearch: request.GetBool("strict_search", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}

		var resp searchResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			errMsg := "search failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatListings(resp.Data)), nil
	}
}

// formatListings renders listings as a numbered plain-text list.
func formatListings(items []listing) string {
	if len(items) == 0 {
		return "No listings found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d listings:\n", len(items))
	for i, l := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, l.Title)
		if l.Price != "" {
			fmt.Fprintf(&b, " (%s €)", l.Price)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   ID: %s\n", l.AdID)
		if l.Distance > 0 {
			fmt.Fprintf(&b, "   Distance: %g km\n", l.Distance)
		}
		if l.Description != "" {
			fmt.Fprintf(&b, "   %s\n", strings.ReplaceAll(l.Description, "\n", " "))
		}
		fmt.Fprintf(&b, "   URL: %s\n", l.URL)
	}
	return b.String()
}

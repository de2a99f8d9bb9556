// Package nyt is a thin client for the NYT article-search API that reshapes
// its deeply nested responses into the flat article form the frontend wants.
package nyt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.nytimes.com/svc/search/v2/articlesearch.json"

var (
	ErrNoAPIKey = fmt.Errorf("NYT API key not set")
	ErrUpstream = fmt.Errorf("NYT API request failed")
)

type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the upstream endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

type Query struct {
	Text      string
	BeginDate string // yyyymmdd, no dashes
	EndDate   string
	Filter    string // NYT fq parameter
	Page      int
}

// Article is the reshaped form sent to the frontend.
type Article struct {
	ID         string  `json:"id"`
	Headline   string  `json:"headline"`
	Author     string  `json:"author"`
	Content    string  `json:"content"`
	ImageURL   *string `json:"imageUrl"`
	ArticleURL string  `json:"articleUrl"`
}

// rawDoc covers just the parts of an article-search doc we consume.
// Multimedia stays raw because its shape varies between responses.
type rawDoc struct {
	ID       string `json:"_id"`
	WebURL   string `json:"web_url"`
	Abstract string `json:"abstract"`
	Snippet  string `json:"snippet"`
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	Byline struct {
		Original string `json:"original"`
	} `json:"byline"`
	Multimedia json.RawMessage `json:"multimedia"`
}

type searchResponse struct {
	Response struct {
		Docs []rawDoc `json:"docs"`
	} `json:"response"`
}

// Search queries the article-search API and returns the parsed articles.
// Docs that cannot be parsed are skipped with a warning, not surfaced.
func (c *Client) Search(ctx context.Context, q Query) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("api-key", c.apiKey)
	params.Set("page", strconv.Itoa(q.Page))
	if q.BeginDate != "" {
		params.Set("begin_date", q.BeginDate)
	}
	if q.EndDate != "" {
		params.Set("end_date", q.EndDate)
	}
	if q.Filter != "" {
		params.Set("fq", q.Filter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	articles := make([]Article, 0, len(sr.Response.Docs))
	for _, doc := range sr.Response.Docs {
		a, ok := parseDoc(doc)
		if !ok {
			log.Warnf("[nyt] article missing _id, skipped")
			continue
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// parseDoc flattens one search doc. A doc without an _id is useless to the
// frontend (ids key the comment columns) and is dropped.
func parseDoc(doc rawDoc) (Article, bool) {
	if doc.ID == "" {
		return Article{}, false
	}

	headline := doc.Headline.Main
	if headline == "" {
		headline = "No Headline Available"
	}

	author := strings.TrimSpace(strings.TrimPrefix(doc.Byline.Original, "By "))
	if author == "" {
		author = "Unknown Author"
	}

	content := doc.Abstract
	if content == "" {
		content = doc.Snippet
	}
	if content == "" {
		content = "No summary available"
	}

	webURL := doc.WebURL
	if webURL == "" {
		webURL = "# "
	}

	return Article{
		ID:         doc.ID,
		Headline:   headline,
		Author:     author,
		Content:    content,
		ImageURL:   imageURL(doc.Multimedia),
		ArticleURL: webURL,
	}, true
}

// imageURL digs multimedia.default.url out of the raw blob. Multimedia is
// sometimes a list, sometimes an object, sometimes absent; anything that
// does not decode to the object shape yields no image.
func imageURL(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}

	var mm struct {
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	}
	if err := json.Unmarshal(raw, &mm); err != nil {
		return nil
	}
	if mm.Default.URL == "" {
		return nil
	}

	return &mm.Default.URL
}

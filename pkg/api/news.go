package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"newsdesk/pkg/nyt"
)

// allowedQueries is the fixed set of search terms the frontend offers.
// Anything else never came from our UI and is refused outright.
var allowedQueries = map[string]bool{
	"davis":                  true,
	"sacramento":             true,
	"Davis":                  true,
	"Sacramento":             true,
	"Davis, California":      true,
	"Sacramento, California": true,
}

// searchHandler proxies the NYT article-search API, reshaping results for
// the frontend. Error bodies are JSON because the frontend renders them.
func (api *API) searchHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	query := r.URL.Query().Get("query")
	if !allowedQueries[query] {
		writeJSONError(w, http.StatusInternalServerError, "Invalid search query: "+query+". Please try again later.")
		log.Debugf("[searchHandler][%s] rejected query %q", sID, query)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}

	q := nyt.Query{
		Text:      query,
		BeginDate: r.URL.Query().Get("begin"),
		EndDate:   r.URL.Query().Get("end"),
		Filter:    r.URL.Query().Get("filter"),
		Page:      page,
	}
	log.Infof("[searchHandler][%s] query:%q filter:%q page:%d", sID, q.Text, q.Filter, q.Page)

	articles, err := api.news.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, nyt.ErrNoAPIKey) {
			writeJSONError(w, http.StatusInternalServerError, "Server error: NYT API key not set.")
			log.Errorf("[searchHandler][%s] NYT API key not set", sID)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.")
		log.Errorf("[searchHandler][%s] NYT search failed: %v", sID, err)
		return
	}

	if err := json.NewEncoder(w).Encode(articles); err != nil {
		log.Errorf("[searchHandler][%s] failed to encode response: %v", sID, err)
	}
}

// searchArticlesHandler is the legacy fixed Sacramento search kept for the
// first frontend iteration. Failures answer 200 with a message body, which
// is what that frontend still expects.
func (api *API) searchArticlesHandler(w http.ResponseWriter, r *http.Request) {
	reqID := GetRequestID(r.Context())
	sID := shorten(reqID)

	q := nyt.Query{
		Text:      "sacramento",
		BeginDate: "20250404",
		EndDate:   "20250428",
	}

	articles, err := api.news.Search(r.Context(), q)
	if err != nil {
		log.Errorf("[searchArticlesHandler][%s] NYT search failed: %v", sID, err)
		json.NewEncoder(w).Encode(map[string]string{"message": "Error!"})
		return
	}

	if err := json.NewEncoder(w).Encode(articles); err != nil {
		log.Errorf("[searchArticlesHandler][%s] failed to encode response: %v", sID, err)
	}
}

// testArticlesHandler serves canned articles so the frontend can be
// developed without an NYT key.
func (api *API) testArticlesHandler(w http.ResponseWriter, r *http.Request) {
	if err := json.NewEncoder(w).Encode(placeholderArticles); err != nil {
		log.Errorf("[testArticlesHandler] failed to encode response: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load articles")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func strPtr(s string) *string { return &s }

var placeholderArticles = []nyt.Article{
	{ID: "nyt1", Headline: "Breaking: Lime Shortage Sparks Citrus Panic", ImageURL: strPtr("/images/1.png"),
		Author: "Zesty Lemonsworth", Content: "Citizens storm supermarkets as lime shelves empty overnight..."},
	{ID: "nyt2", Headline: "Exclusive Interview: \"Life as a Lime Farmer\"", ImageURL: strPtr("/images/2.png"),
		Author: "Margarita Limeberg", Content: "Farmer Zest McJuicy reveals secrets..."},
	{ID: "nyt3", Headline: "Opinion: Is Lime the New Lemon?", ImageURL: strPtr("/images/3.png"),
		Author: "Citrus McPeel", Content: "Lemon lobbyists are furious..."},
	{ID: "nyt4", Headline: "Study Reveals 9 Out of 10 Doctors Recommend More Limes", ImageURL: strPtr("/images/5.png"),
		Author: "Dr. Key Limeman", Content: "'Sourness improves your mood,' scientists confirm..."},
	{ID: "nyt5", Headline: "Sports Update: Limetown Limers Win the Citrus Cup", ImageURL: strPtr("/images/6.png"),
		Author: "Coach Ricky Rind", Content: "Fans chant, 'When life gives you limes...'"},
	{ID: "nyt6", Headline: "Technology Breakthrough: Smartphone Now Charges Using Limes", ImageURL: strPtr("/images/7.png"),
		Author: "Elon Zest", Content: "Tech company CEO proudly announces..."},
	{ID: "nyt7", Headline: "Travel Guide: Top 5 Lime-Themed Destinations", ImageURL: strPtr("/images/1.png"),
		Author: "Clementine Sourwood", Content: "Visit Lime Island, Limetown..."},
	{ID: "nyt8", Headline: "Economics: LimeCoin Cryptocurrency Hits Record High", ImageURL: strPtr("/images/8.png"),
		Author: "Warren Zuffet", Content: "Investors advise: 'Buy low, zest high.'"},
	{ID: "nyt9", Headline: "Cooking Tips: How to Lime Your Way to Culinary Stardom", ImageURL: strPtr("/images/9.png"),
		Author: "Chef Zestina Peelini", Content: "'A lime a day keeps blandness away,' celebrity chef advises."},
	{ID: "nyt10", Headline: "Crime Report: Lime Bandits Strike Again", ImageURL: strPtr("/images/1.png"),
		Author: "Detective Perry Limecroft", Content: "Thieves apprehended after stealing 1,000 limes..."},
	{ID: "nyt11", Headline: "Weather Forecast: Heavy Lime Showers Expected", ImageURL: strPtr("/images/12.png"),
		Author: "Sunny Citrina", Content: "Meteorologists warn residents to carry cocktail umbrellas..."},
	{ID: "nyt12", Headline: "Science: Lime Juice Found on Mars", ImageURL: strPtr("/images/10.png"),
		Author: "Neil Zestrong", Content: "NASA confirms, 'The red planet is now officially zesty.'"},
}

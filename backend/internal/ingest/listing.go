// Package ingest pulls job listings from the third-party jobs API, reshapes them into
// the listing payload the backend accepts and posts them to it.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Tag types carried on a listing
const (
	TagLocation = "LocationTag"
	TagRole     = "RoleTag"
	TagSkill    = "SkillTag"
)

// Listing is one job as returned by the jobs API
type Listing struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	CreatedAt    string      `json:"created_at"`
	CurrencyCode string      `json:"currency_code"`
	SalaryMin    json.Number `json:"salary_min"`
	SalaryMax    json.Number `json:"salary_max"`
	EquityMin    json.Number `json:"equity_min"`
	EquityMax    json.Number `json:"equity_max"`
	Startup      Startup     `json:"startup"`
	Tags         []Tag       `json:"tags"`
}

// Startup is the company block embedded in a listing
type Startup struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	LogoURL       string      `json:"logo_url"`
	Quality       json.Number `json:"quality"`
	ProductDesc   string      `json:"product_desc"`
	HighConcept   string      `json:"high_concept"`
	FollowerCount json.Number `json:"follower_count"`
	CompanyURL    string      `json:"company_url"`
}

// Tag classifies a listing
type Tag struct {
	TagType string `json:"tag_type"`
	Name    string `json:"name"`
}

// Page is one page of the listings endpoint
type Page struct {
	Jobs     []Listing `json:"jobs"`
	Page     int       `json:"page"`
	LastPage int       `json:"last_page"`
}

// CompanyDetails is the extra company metadata fetched per startup
type CompanyDetails struct {
	CompanySize string `json:"company_size"`
	TwitterURL  string `json:"twitter_url"`
	BlogURL     string `json:"blog_url"`
}

// Company is the company document stored on a job as JSON text
type Company struct {
	Name          string `json:"name"`
	ID            int64  `json:"id"`
	LogoURL       string `json:"logoUrl"`
	Quality       string `json:"quality"`
	ProductDesc   string `json:"productDesc"`
	HighConcept   string `json:"highConcept"`
	FollowerCount string `json:"followerCount"`
	CompanyURL    string `json:"companyUrl"`
	Today         string `json:"today"`
	CompanySize   string `json:"companySize,omitempty"`
	TwitterURL    string `json:"twitterUrl,omitempty"`
	BlogURL       string `json:"blogUrl,omitempty"`
}

// Job is the payload posted to the backend. Nested documents are JSON text.
type Job struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Created string `json:"created"`
	Company string `json:"company"`
	Salary  string `json:"salary"`
	Equity  string `json:"equity"`
	Roles   string `json:"roles"`
	Skills  string `json:"skills"`
	Loc     string `json:"loc"`
}

type named struct {
	Name string `json:"name"`
}

type salary struct {
	Currency  string  `json:"currency"`
	SalaryMax float64 `json:"salaryMax"`
	SalaryMin float64 `json:"salaryMin"`
}

type equity struct {
	EquityMax float64 `json:"equityMax"`
	EquityMin float64 `json:"equityMin"`
}

// Reshape turns a listing into the backend payload. The company document is returned
// separately so it can be enriched before it is serialized into the job.
func Reshape(l Listing, today time.Time) (Job, Company) {
	company := Company{
		Name:          l.Startup.Name,
		ID:            l.Startup.ID,
		LogoURL:       l.Startup.LogoURL,
		Quality:       l.Startup.Quality.String(),
		ProductDesc:   PlainText(l.Startup.ProductDesc),
		HighConcept:   PlainText(l.Startup.HighConcept),
		FollowerCount: l.Startup.FollowerCount.String(),
		CompanyURL:    l.Startup.CompanyURL,
		Today:         today.Format("2006-01-02"),
	}

	roles := []named{}
	skills := []named{}
	loc := map[string]string{}
	for _, tag := range l.Tags {
		switch tag.TagType {
		case TagLocation:
			loc["city"] = tag.Name
		case TagRole:
			roles = append(roles, named{Name: tag.Name})
		case TagSkill:
			skills = append(skills, named{Name: tag.Name})
		}
	}

	job := Job{
		ID:      strconv.FormatInt(l.ID, 10),
		Title:   strings.TrimSpace(l.Title),
		Created: l.CreatedAt,
		Salary: mustJSON(salary{
			Currency:  l.CurrencyCode,
			SalaryMax: number(l.SalaryMax),
			SalaryMin: number(l.SalaryMin),
		}),
		Equity: mustJSON(equity{
			EquityMax: number(l.EquityMax),
			EquityMin: number(l.EquityMin),
		}),
		Roles:  mustJSON(roles),
		Skills: mustJSON(skills),
		Loc:    mustJSON(loc),
	}
	return job, company
}

// Enrich merges the fetched details into the company
func (c *Company) Enrich(d CompanyDetails) {
	c.CompanySize = d.CompanySize
	c.TwitterURL = d.TwitterURL
	c.BlogURL = d.BlogURL
}

// WithCompany serializes the company into the job
func (j Job) WithCompany(c Company) Job {
	j.Company = mustJSON(c)
	return j
}

// PlainText strips markup from an HTML fragment and collapses whitespace
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// number reads a JSON number that may be missing or malformed as 0
func number(n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		// only plain structs, slices and maps of strings reach here
		panic(fmt.Sprintf("ingest: marshal %T: %v", v, err))
	}
	return string(b)
}

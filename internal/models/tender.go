package models

import (
	"encoding/json"
	"time"
)

// RawRecord is one untyped record as decoded from the tender feed
type RawRecord map[string]any

// SupportingDoc links a tender to a document or page describing it
type SupportingDoc struct {
	Name string `json:"name" example:"Eskom Tender Bulletin"`
	URL  string `json:"url" example:"https://tenderbulletin.eskom.co.za/webapi/api/Lookup/GetTender?TENDER_ID=123"`
}

// Tender is the normalized tender entity.
// A Tender is built once by the normalizer and treated as read-only afterwards.
type Tender struct {
	TenderNumber   string
	Title          string
	Description    string
	Source         string
	PublishedDate  *time.Time
	ClosingDate    *time.Time
	SupportingDocs []SupportingDoc
	Tags           []string

	OfficeLocation string
	Email          string
	Address        string
	Province       string
	Audience       string
}

// TenderJSON is the wire shape of a Tender. Consumers depend on the exact key set.
type TenderJSON struct {
	Title          string          `json:"title" example:"Upgrade Substation"`
	Description    string          `json:"description" example:"Full electrical overhaul"`
	Source         string          `json:"source" example:"Eskom"`
	PublishedDate  *string         `json:"publishedDate" example:"2025-10-01T09:00:00Z"`
	ClosingDate    *string         `json:"closingDate" example:"2025-10-31T16:00:00Z"`
	SupportingDocs []SupportingDoc `json:"supportingDocs"`
	Tags           []string        `json:"tags"`
	TenderNumber   string          `json:"tenderNumber" example:"123"`
	OfficeLocation string          `json:"officeLocation" example:"Megawatt Park"`
	Email          string          `json:"email" example:"tenders@eskom.co.za"`
	Address        string          `json:"address" example:"1 Maxwell Drive, Sunninghill"`
	Province       string          `json:"province" example:"Gauteng"`
	Audience       string          `json:"audience" example:"Suppliers"`
}

// TenderKeys lists the keys every serialized tender carries
var TenderKeys = []string{
	"title", "description", "source", "publishedDate", "closingDate",
	"supportingDocs", "tags", "tenderNumber", "officeLocation", "email",
	"address", "province", "audience",
}

// Wire converts the tender to its wire shape
func (t Tender) Wire() TenderJSON {
	docs := t.SupportingDocs
	if docs == nil {
		docs = []SupportingDoc{}
	}
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}

	return TenderJSON{
		Title:          t.Title,
		Description:    t.Description,
		Source:         t.Source,
		PublishedDate:  formatTimestamp(t.PublishedDate),
		ClosingDate:    formatTimestamp(t.ClosingDate),
		SupportingDocs: docs,
		Tags:           tags,
		TenderNumber:   t.TenderNumber,
		OfficeLocation: t.OfficeLocation,
		Email:          t.Email,
		Address:        t.Address,
		Province:       t.Province,
		Audience:       t.Audience,
	}
}

// MarshalJSON implements json.Marshaler
func (t Tender) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Wire())
}

func formatTimestamp(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	s := ts.Format(time.RFC3339Nano)
	return &s
}

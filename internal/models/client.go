// Package models defines the domain types for the deal room.
package models

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultBrandColor is used when a client has no brand colour of its own.
const DefaultBrandColor = "#6B7280"

// Bucket is one of the three client lifecycle partitions.
type Bucket string

// Buckets.
const (
	BucketCurrent     Bucket = "current"
	BucketArchived    Bucket = "archived"
	BucketProspective Bucket = "prospective"
)

// AllBuckets lists the buckets in scan order.
var AllBuckets = []Bucket{BucketCurrent, BucketArchived, BucketProspective}

// ParseBucket converts s into a Bucket. An empty string yields BucketCurrent.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BucketCurrent, nil
	case BucketCurrent, BucketArchived, BucketProspective:
		return b, nil
	default:
		return "", fmt.Errorf("unknown bucket %q", s)
	}
}

// Client is a client or deal record.
type Client struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	Logo           string       `json:"logo,omitempty" yaml:"logo"`
	BrandColor     string       `json:"brandColor,omitempty" yaml:"brandColor"`
	ClientLead     string       `json:"clientLead" yaml:"clientLead"`
	TeamSize       int          `json:"teamSize" yaml:"teamSize"`
	PitchDate      string       `json:"pitchDate" yaml:"pitchDate"`
	DateEngaged    string       `json:"dateEngaged" yaml:"dateEngaged"`
	Budget         string       `json:"budget" yaml:"budget"`
	Goals          []string     `json:"goals" yaml:"goals"`
	CompanyProfile string       `json:"companyProfile" yaml:"companyProfile"`
	ProjectScope   string       `json:"projectScope" yaml:"projectScope"`
	BoxURL         string       `json:"boxUrl,omitempty" yaml:"boxUrl"`
	KeyContacts    []KeyContact `json:"keyContacts" yaml:"keyContacts"`
	ActionItems    []ActionItem `json:"actionItems" yaml:"actionItems"`
	Comments       []Comment    `json:"comments" yaml:"comments"`
	BigIdeas       []Idea       `json:"bigIdeas" yaml:"bigIdeas"`
	Documents      []Document   `json:"documents" yaml:"documents"`
}

// EffectiveBrandColor returns the brand colour, falling back to DefaultBrandColor.
func (c Client) EffectiveBrandColor() string {
	if c.BrandColor == "" {
		return DefaultBrandColor
	}
	return c.BrandColor
}

// Clone returns a deep copy of c. Nil collections come back as empty slices
// so that JSON output always carries arrays.
func (c Client) Clone() Client {
	out := c
	out.Goals = cloneSlice(c.Goals)
	out.KeyContacts = cloneSlice(c.KeyContacts)
	out.ActionItems = cloneSlice(c.ActionItems)
	out.Comments = cloneSlice(c.Comments)
	out.BigIdeas = cloneSlice(c.BigIdeas)
	out.Documents = cloneSlice(c.Documents)
	return out
}

// KeyContact is a person on the client side.
type KeyContact struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
	Bio   string `json:"bio" yaml:"bio"`
}

// ActionItem is a task tracked against a client.
type ActionItem struct {
	ID          string `json:"id" yaml:"id"`
	Task        string `json:"task" yaml:"task"`
	Assignee    string `json:"assignee" yaml:"assignee"`
	Completed   bool   `json:"completed" yaml:"completed"`
	DueDate     string `json:"dueDate" yaml:"dueDate"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Comment is a team comment on a client.
type Comment struct {
	ID        string `json:"id" yaml:"id"`
	Author    string `json:"author" yaml:"author"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Avatar    string `json:"avatar,omitempty" yaml:"avatar"`
}

// Idea is a "big idea" pitched for a client.
type Idea struct {
	ID        string `json:"id" yaml:"id"`
	Author    string `json:"author" yaml:"author"`
	Content   string `json:"content" yaml:"content"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Votes     int    `json:"votes" yaml:"votes"`
	Avatar    string `json:"avatar,omitempty" yaml:"avatar"`
}

// Document is metadata about a file attached to a client.
type Document struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	UploadDate string `json:"uploadDate" yaml:"uploadDate"`
}

// TeamMember is an agency team member.
type TeamMember struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Title      string `json:"title" yaml:"title"`
	Avatar     string `json:"avatar,omitempty" yaml:"avatar"`
	IsAssigned bool   `json:"isAssigned" yaml:"isAssigned"`
}

// PartitionTeam splits members into assigned and unassigned, preserving order.
func PartitionTeam(members []TeamMember) (assigned, unassigned []TeamMember) {
	assigned = []TeamMember{}
	unassigned = []TeamMember{}
	for _, m := range members {
		if m.IsAssigned {
			assigned = append(assigned, m)
		} else {
			unassigned = append(unassigned, m)
		}
	}
	return assigned, unassigned
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

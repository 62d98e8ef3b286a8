package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

// Generates a synthetic incident feed for local development. The notes
// deliberately contain fake PII so the anonymization path can be
// exercised end to end with the indexer.

var categories = map[string][]string{
	"Network":  {"VPN", "DNS", "WiFi", "Firewall"},
	"Hardware": {"Laptop", "Printer", "Monitor", "Disk"},
	"Software": {"Email", "License", "CRM", "Browser"},
	"Access":   {"Password Reset", "Account Lockout", "Permissions"},
}

var priorities = []string{"1 - Critical", "2 - High", "3 - Moderate", "4 - Low"}

var teams = []string{"Network Ops", "Desktop Support", "App Support", "Identity Team"}

var noteTemplates = []string{
	"Issue reported by %s, reachable at %s. Restarted the affected service.",
	"Caller %s confirmed the outage from workstation %s. Escalated to vendor.",
	"User contacted by %s. Root cause traced to host %s, patch applied.",
	"Duplicate of INC%07d. Original reporter %s at %s.",
}

var names = []string{"Alice Johnson", "Bob Miller", "Carol White", "David Chen", "Eve Thompson"}

func main() {
	count := 200
	path := "Snow_Incidents.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Number", "Category", "Subcategory", "Impact", "Urgency", "Priority",
		"State", "Opened At", "Resolved At", "Assignment Group", "Assigned To",
		"Short Description", "Notes",
	}
	if err := writer.Write(header); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	categoryNames := make([]string, 0, len(categories))
	for name := range categories {
		categoryNames = append(categoryNames, name)
	}

	base := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= count; i++ {
		category := categoryNames[rng.Intn(len(categoryNames))]
		subcategory := categories[category][rng.Intn(len(categories[category]))]
		priority := priorities[rng.Intn(len(priorities))]
		opened := base.Add(time.Duration(rng.Intn(300*24)) * time.Hour)

		state := "Resolved"
		resolvedAt := opened.Add(time.Duration(1+rng.Intn(72)) * time.Hour).Format("2006-01-02 15:04:05")
		if rng.Intn(5) == 0 {
			state = "In Progress"
			resolvedAt = ""
		}

		name := names[rng.Intn(len(names))]
		email := fmt.Sprintf("user%d@corp.example.org", rng.Intn(500))
		host := fmt.Sprintf("10.%d.%d.%d", rng.Intn(256), rng.Intn(256), 1+rng.Intn(254))
		notes := ""
		switch rng.Intn(len(noteTemplates)) {
		case 0:
			notes = fmt.Sprintf(noteTemplates[0], name, email)
		case 1:
			notes = fmt.Sprintf(noteTemplates[1], name, host)
		case 2:
			notes = fmt.Sprintf(noteTemplates[2], name, host)
		default:
			notes = fmt.Sprintf(noteTemplates[3], rng.Intn(i)+1, name, email)
		}

		row := []string{
			fmt.Sprintf("INC%07d", i),
			category,
			subcategory,
			priority[:1] + " - Medium",
			priority[:1] + " - Medium",
			priority,
			state,
			opened.Format("2006-01-02 15:04:05"),
			resolvedAt,
			teams[rng.Intn(len(teams))],
			fmt.Sprintf("agent%d", rng.Intn(20)),
			fmt.Sprintf("%s issue with %s", category, subcategory),
			notes,
		}
		if err := writer.Write(row); err != nil {
			log.Fatalf("Failed to write row %d: %v", i, err)
		}
	}

	log.Printf("Wrote %d synthetic incidents to %s", count, path)
}

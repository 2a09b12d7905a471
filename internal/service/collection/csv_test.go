package collection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
)

func TestImportCSVRequiresCapability(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)

	viewer := &domain.User{ID: "view", Role: domain.RoleViewer, Active: true}
	input := "host,date,individual\nDunwoody,2024-01-08,50\n"
	if _, err := svc.ImportCSV(context.Background(), viewer, strings.NewReader(input), ImportOptions{SubmittedBy: viewer.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(collections.entries) != 0 {
		t.Fatalf("forbidden import wrote %d entries", len(collections.entries))
	}
}

func TestImportCSVHeaderVariants(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)

	input := strings.Join([]string{
		"Host Name,Collection Date,Individual Sandwiches,Group Collections",
		"Dunwoody,2024-01-08,120,",
		"Roswell,1/15/2024,80,45",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{SubmittedBy: "import"})
	if err != nil {
		t.Fatalf("ImportCSV returned error: %v", err)
	}
	if result.TotalRows != 2 || result.Imported != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(collections.entries) != 2 {
		t.Fatalf("stored %d entries, want 2", len(collections.entries))
	}
}

func TestImportCSVGroupFormats(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)

	input := strings.Join([]string{
		"host,date,individual,groups",
		`Dunwoody,2024-01-08,10,"[{""groupName"":""Scouts"",""sandwichCount"":25}]"`,
		"Roswell,2024-01-08,0,40",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{SubmittedBy: "import"})
	if err != nil {
		t.Fatalf("ImportCSV returned error: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2: %+v", result.Imported, result)
	}

	var totals int
	for _, entry := range collections.entries {
		totals += entry.Total()
	}
	if totals != 75 {
		t.Fatalf("combined total = %d, want 75", totals)
	}
}

func TestImportCSVCollectsRowErrors(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)

	input := strings.Join([]string{
		"host,date,individual",
		"Dunwoody,2024-01-08,50",
		",2024-01-08,10",
		"Roswell,not-a-date,10",
		"Alpharetta,2024-01-15,oops",
		"Sandy Springs,2024-01-15,30",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{SubmittedBy: "import"})
	if err != nil {
		t.Fatalf("ImportCSV returned error: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2: %+v", result.Imported, result)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors = %d, want 3: %v", len(result.Errors), result.Errors)
	}
	if len(collections.entries) != 2 {
		t.Fatalf("stored %d entries, want 2", len(collections.entries))
	}
}

func TestImportCSVPreviewWritesNothing(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)

	input := strings.Join([]string{
		"host,date,individual",
		"Dunwoody,2024-01-08,50",
		"Roswell,2024-01-08,20",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{Preview: true, SubmittedBy: "import"})
	if err != nil {
		t.Fatalf("ImportCSV returned error: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}
	if len(collections.entries) != 0 {
		t.Fatalf("preview wrote %d entries", len(collections.entries))
	}
}

func TestImportCSVDuplicateHandling(t *testing.T) {
	collections := newStubCollections()
	svc := testService(newStubHosts(), newStubRecipients(), collections)

	input := "host,date,individual\nDunwoody,2024-01-08,50\n"
	if _, err := svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{SubmittedBy: "import"}); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// Same row again: skipped without overwrite, replaced with it.
	result, err := svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{SubmittedBy: "import"})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Skipped != 1 || result.Imported != 0 {
		t.Fatalf("unexpected skip result: %+v", result)
	}

	result, err = svc.ImportCSV(context.Background(), logger("import"), strings.NewReader(input), ImportOptions{Overwrite: true, SubmittedBy: "import"})
	if err != nil {
		t.Fatalf("overwrite import: %v", err)
	}
	if result.Replaced != 1 || result.Imported != 1 {
		t.Fatalf("unexpected overwrite result: %+v", result)
	}
	if len(collections.entries) != 1 {
		t.Fatalf("stored %d entries, want 1", len(collections.entries))
	}
}

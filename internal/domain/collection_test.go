package domain

import "testing"

func TestParseGroupCollectionsBareNumber(t *testing.T) {
	groups, err := ParseGroupCollections("120")
	if err != nil {
		t.Fatalf("ParseGroupCollections returned error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].GroupName != "Unnamed Groups" || groups[0].SandwichCount != 120 {
		t.Fatalf("unexpected group: %+v", groups[0])
	}
}

func TestParseGroupCollectionsEmptyVariants(t *testing.T) {
	for _, raw := range []string{"", "  ", "[]", "null", "0"} {
		groups, err := ParseGroupCollections(raw)
		if err != nil {
			t.Fatalf("ParseGroupCollections(%q) returned error: %v", raw, err)
		}
		if groups != nil {
			t.Fatalf("ParseGroupCollections(%q) = %+v, want nil", raw, groups)
		}
	}
}

func TestParseGroupCollectionsJSONArray(t *testing.T) {
	raw := `[{"groupName":"Scouts","sandwichCount":40},{"name":"Choir","count":25}]`
	groups, err := ParseGroupCollections(raw)
	if err != nil {
		t.Fatalf("ParseGroupCollections returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].GroupName != "Scouts" || groups[0].SandwichCount != 40 {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if groups[1].GroupName != "Choir" || groups[1].SandwichCount != 25 {
		t.Fatalf("unexpected second group: %+v", groups[1])
	}
}

func TestParseGroupCollectionsRejectsGarbage(t *testing.T) {
	if _, err := ParseGroupCollections("not-json"); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestCollectionTotalIncludesGroups(t *testing.T) {
	entry := SandwichCollection{
		IndividualCount: 30,
		GroupCollections: []GroupCollection{
			{GroupName: "A", SandwichCount: 10},
			{GroupName: "B", SandwichCount: 5},
		},
	}
	if got := entry.GroupTotal(); got != 15 {
		t.Fatalf("GroupTotal = %d, want 15", got)
	}
	if got := entry.Total(); got != 45 {
		t.Fatalf("Total = %d, want 45", got)
	}
}

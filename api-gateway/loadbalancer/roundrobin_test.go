package loadbalancer

import "testing"

func TestNextRotates(t *testing.T) {
	lb := NewRoundRobin([]string{"http://a:8080", "http://b:8080", "http://c:8080"})

	want := []string{
		"http://a:8080", "http://b:8080", "http://c:8080",
		"http://a:8080", "http://b:8080",
	}
	for i, expected := range want {
		if got := lb.Next(); got != expected {
			t.Fatalf("call %d: expected %s, got %s", i, expected, got)
		}
	}
}

func TestNextEmptyPool(t *testing.T) {
	lb := NewRoundRobin(nil)
	if got := lb.Next(); got != "" {
		t.Fatalf("expected empty string for empty pool, got %q", got)
	}
}

func TestInstancesReturnsCopy(t *testing.T) {
	lb := NewRoundRobin([]string{"http://a:8080"})

	instances := lb.Instances()
	instances[0] = "mutated"

	if got := lb.Next(); got != "http://a:8080" {
		t.Fatalf("pool was mutated through the copy: %q", got)
	}
}

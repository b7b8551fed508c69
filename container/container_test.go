package container

import "testing"

func TestLoadRawFallback(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	p, err := Load(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sect, ok := p.DecodeSection()
	if !ok || sect.Name != "file" {
		t.Fatal("expected the whole-file fallback section for unrecognized input")
	}
}

func TestLoadDegradesTruncatedELFToRawFallback(t *testing.T) {
	data := []byte{0x7F, 'E', 'L', 'F', 0x01, 0x01, 0x01}
	p, err := Load(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sect, ok := p.DecodeSection()
	if !ok || sect.Name != "file" {
		t.Fatal("expected a malformed ELF header to degrade to the whole-file fallback section")
	}
}

func TestLoadDegradesTruncatedPEToRawFallback(t *testing.T) {
	data := []byte{'M', 'Z', 0x00, 0x00}
	p, err := Load(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sect, ok := p.DecodeSection()
	if !ok || sect.Name != "file" {
		t.Fatal("expected a malformed PE header to degrade to the whole-file fallback section")
	}
}

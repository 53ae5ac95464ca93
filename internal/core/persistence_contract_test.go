package core

import (
	"go/types"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestTaskStoreImplementationsHardening ensures only sanctioned persistence
// packages provide concrete implementations of domain.TaskStore. Every
// sanctioned backend scopes its queries by project id; a backend added
// elsewhere would bypass that review, so it must show up here first.
func TestTaskStoreImplementationsHardening(t *testing.T) {
	// Tests stay out of the load: test doubles may implement the interface
	// but never reach production wiring.
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes}
	pkgs, err := packages.Load(cfg, "taskcore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var taskStore *types.Interface
	for _, p := range pkgs {
		if p.PkgPath == "taskcore/pkg/domain" {
			obj := p.Types.Scope().Lookup("TaskStore")
			if obj == nil {
				t.Fatalf("domain.TaskStore not found")
			}
			iface, ok := obj.Type().Underlying().(*types.Interface)
			if !ok {
				t.Fatalf("domain.TaskStore is not an interface")
			}
			taskStore = iface
		}
	}
	if taskStore == nil {
		t.Fatalf("failed to resolve TaskStore interface")
	}
	allowed := map[string]struct{}{
		"taskcore/internal/infra/persistence/memory":   {},
		"taskcore/internal/infra/persistence/sqlite":   {},
		"taskcore/internal/infra/persistence/postgres": {},
	}
	var unexpected []string
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			obj := p.Types.Scope().Lookup(name)
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			if types.Implements(types.NewPointer(named), taskStore) {
				if _, ok := allowed[p.PkgPath]; !ok {
					unexpected = append(unexpected, p.PkgPath+"."+name)
				}
			}
		}
	}
	if len(unexpected) > 0 {
		t.Fatalf("unexpected TaskStore implementations (update the allowed list deliberately when adding a backend): %v", unexpected)
	}
}

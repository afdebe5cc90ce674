package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed schemas/*.toml
var builtinFS embed.FS

// Registry 科目表注册表，启动时构建，之后只读
type Registry struct {
	schemas map[string]*Schema
	order   []string
}

var (
	builtinOnce sync.Once
	builtinReg  *Registry
	builtinErr  error
)

// Builtin 内置科目表（资产负债表、利润表）
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtinReg, builtinErr = loadFS(builtinFS, "schemas", nil)
	})
	return builtinReg, builtinErr
}

// MustBuiltin 内置科目表，加载失败直接 panic
func MustBuiltin() *Registry {
	reg, err := Builtin()
	if err != nil {
		panic(err)
	}
	return reg
}

// Load 内置科目表 + 目录中的额外科目表（同 ID 覆盖内置）
func Load(dir string) (*Registry, error) {
	base, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return base, nil
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to stat schema dir: %w", err)
	}
	return loadFS(os.DirFS(dir), ".", base)
}

func loadFS(fsys fs.FS, root string, base *Registry) (*Registry, error) {
	reg := &Registry{schemas: make(map[string]*Schema)}
	if base != nil {
		for _, id := range base.order {
			reg.add(base.schemas[id])
		}
	}

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read schemas: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".toml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(fsys, pathJoin(root, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		reg.add(s)
	}
	return reg, nil
}

func pathJoin(root, name string) string {
	if root == "." || root == "" {
		return name
	}
	return root + "/" + name
}

func (r *Registry) add(s *Schema) {
	if _, exists := r.schemas[s.ID]; !exists {
		r.order = append(r.order, s.ID)
	}
	r.schemas[s.ID] = s
}

// Get 按 ID 或简称（BS / PL，不区分大小写）查找
func (r *Registry) Get(key string) (*Schema, error) {
	if s, ok := r.schemas[key]; ok {
		return s, nil
	}
	for _, id := range r.order {
		if strings.EqualFold(r.schemas[id].Short, key) {
			return r.schemas[id], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, key)
}

// List 按注册顺序返回全部科目表
func (r *Registry) List() []*Schema {
	out := make([]*Schema, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.schemas[id])
	}
	return out
}

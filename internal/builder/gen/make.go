package gen

import "strings"

// MakeGen writes a GNU Makefile.
type MakeGen struct {
	rules
}

func (g *MakeGen) BuildFile() string { return "Makefile" }

var makePathEscaper = strings.NewReplacer("$", "$$", " ", `\ `, "#", `\#`)

func makeQuote(s string) string { return makePathEscaper.Replace(s) }

func (g *MakeGen) Generate() string {
	var sb strings.Builder

	writeln(&sb, "# ", header)
	writeln(&sb)
	writeln(&sb, "BUILD_DIR = ", makeQuote(g.buildDir))
	writeln(&sb, "BIN_DIR = ", makeQuote(g.binDir))
	writeln(&sb)
	writeln(&sb, "CC = ", g.cc)
	writeln(&sb, "CFLAGS = ", g.cflags)
	writeln(&sb, "LDFLAGS = ", g.ldflags)
	writeln(&sb)
	writeln(&sb, "TARGETS = ", strings.Join(g.targetNames(), " "))
	writeln(&sb)
	if g.binInRoot() {
		writeln(&sb, ".PHONY: all clean")
		writeln(&sb)
		writeln(&sb, "all: $(TARGETS)")
	} else {
		// the bare names are aliases for the binaries in $(BIN_DIR)
		writeln(&sb, ".PHONY: all clean $(TARGETS)")
		writeln(&sb)
		writeln(&sb, "all: $(addprefix $(BIN_DIR)/,$(TARGETS))")
	}
	writeln(&sb)

	// compile rules, one per object
	for _, c := range g.compiles {
		writeln(&sb, "$(BUILD_DIR)/", makeQuote(c.obj), ": ", makeQuote(c.src))
		writeln(&sb, "\t@mkdir -p $(BUILD_DIR)")
		writeln(&sb, "\t$(CC) $(CFLAGS) -MMD -MP -c $< -o $@")
		writeln(&sb)
	}

	// link rules, each targeting the file it writes
	for _, t := range g.targets {
		out := t.name
		if !g.binInRoot() {
			out = "$(BIN_DIR)/" + t.name
		}
		write(&sb, out, ":")
		for _, obj := range t.objs {
			write(&sb, " \\\n\t$(BUILD_DIR)/", makeQuote(obj))
		}
		writeln(&sb)
		if !g.binInRoot() {
			writeln(&sb, "\t@mkdir -p $(BIN_DIR)")
		}
		writeln(&sb, "\t$(CC) $^ -o $@ $(LDFLAGS)")
		writeln(&sb)
		if !g.binInRoot() {
			writeln(&sb, t.name, ": ", out)
			writeln(&sb)
		}
	}

	writeln(&sb, "-include $(wildcard $(BUILD_DIR)/*.d)")
	writeln(&sb)
	writeln(&sb, "clean:")
	writeln(&sb, "\trm -f $(BUILD_DIR)/*.o $(BUILD_DIR)/*.d")
	writeln(&sb, "\trm -f $(addprefix $(BIN_DIR)/,$(TARGETS))")

	return sb.String()
}

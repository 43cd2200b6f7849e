package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestMigrateFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"root default", nil, false},
		{"root", []string{"--migrate"}, true},
		{"serve default", []string{"serve"}, false},
		{"serve", []string{"serve", "--migrate"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			cl := newCLI()
			root := cl.rootCommand()

			cmd, rest, err := root.Find(tt.args)
			c.Assert(err, qt.IsNil)
			c.Assert(cmd.ParseFlags(rest), qt.IsNil)
			c.Assert(cl.migrateOnStart(), qt.Equals, tt.want)
		})
	}
}

func TestRootCommandTree(t *testing.T) {
	c := qt.New(t)
	root := newRootCommand()

	for _, name := range []string{"serve", "migrate", "promote"} {
		cmd, _, err := root.Find([]string{name})
		c.Assert(err, qt.IsNil)
		c.Assert(cmd.Name(), qt.Equals, name)
	}

	migrate, _, err := root.Find([]string{"migrate"})
	c.Assert(err, qt.IsNil)
	c.Assert(migrate.Args(migrate, []string{"sideways"}), qt.ErrorMatches, `invalid argument "sideways".*`)
	c.Assert(migrate.Args(migrate, []string{"up"}), qt.IsNil)
	c.Assert(migrate.Args(migrate, nil), qt.IsNotNil)
}

func TestPromoteFlags(t *testing.T) {
	c := qt.New(t)
	cl := newCLI()
	root := cl.rootCommand()

	cmd, rest, err := root.Find([]string{"promote", "--email", "ada@example.com"})
	c.Assert(err, qt.IsNil)
	c.Assert(cmd.ParseFlags(rest), qt.IsNil)
	c.Assert(cl.promoteFlags[emailFlag].GetString(), qt.Equals, "ada@example.com")
	c.Assert(cl.promoteFlags[roleFlag].GetString(), qt.Equals, "admin")
}

func TestPromoteRequiresEmail(t *testing.T) {
	c := qt.New(t)
	root := newRootCommand()
	root.SetArgs([]string{"promote"})
	root.SilenceErrors = true
	c.Assert(root.Execute(), qt.ErrorMatches, "--email is required")
}

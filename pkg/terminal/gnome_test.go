package terminal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

const introspection = `method return time=1700000000.1 sender=:1.42 -> destination=:1.99 serial=7 reply_serial=2
   string "<!DOCTYPE node PUBLIC "-//freedesktop//DTD D-BUS Object Introspection 1.0//EN"
"http://www.freedesktop.org/standards/dbus/1.0/introspect.dtd">
<node>
  <interface name="org.freedesktop.DBus.Introspectable">
  </interface>
  <node name="295b6208_4798_466e_92b8_89d152b14c72"/>
  <node name="0a1b2c3d_0000_1111_2222_333344445555"/>
  <node name="not-a-screen"/>
</node>
"`

func TestParseNodes(t *testing.T) {
	nodes := parseNodes(introspection)
	assert.Equal(t, []string{
		"295b6208_4798_466e_92b8_89d152b14c72",
		"0a1b2c3d_0000_1111_2222_333344445555",
	}, nodes)

	assert.Empty(t, parseNodes(""))
}

func TestCreateTabCommand(t *testing.T) {
	g := NewGnome(nil, "")
	assert.Equal(t, `gnome-terminal --tab -t "logs" -e "tmux" 2> /dev/null`, g.CreateTabCommand("logs"))

	isolated := NewGnome(nil, "tmux -L test")
	assert.Equal(t, `gnome-terminal --tab -t "Tmux terminal" -e "tmux -L test" 2> /dev/null`,
		isolated.CreateTabCommand("Tmux terminal"))
}

func TestCreateWindowValidatesInput(t *testing.T) {
	g := NewGnome(nil, "")
	ctx := context.Background()

	assert.Error(t, g.CreateWindow(ctx, "huge", "main"))
	assert.Error(t, g.CreateWindow(ctx, "80x24+0+0", `bad "name"`))
}

var _ Emulator = (*Gnome)(nil)

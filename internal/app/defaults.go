package app

// demo is a canvas and effect pair shown when nothing else is configured.
type demo struct {
	canvas string
	effect string
}

var demos = []demo{
	{
		canvas: "\x1b[1;38;2;255;170;0m   ___      _            \x1b[0m\n" +
			"\x1b[1;38;2;255;120;0m  / _/_ __ | |__ _ _  _  \x1b[0m\n" +
			"\x1b[1;38;2;255;70;0m |  _\\ \\ / | / _` | || | \x1b[0m\n" +
			"\x1b[1;38;2;230;30;60m |_| /_\\_\\ |_\\__,_|\\_, | \x1b[0m\n" +
			"\x1b[38;5;245m   terminal effects   |__/  \x1b[0m",
		effect: `fx.sequence(
  fx.sweep_in("left_to_right", 12, "black", {900, "quad_out"}),
  fx.hsl_shift({h = 40}, {600, "sine_in_out"}),
  fx.sleep(800),
  fx.dissolve({700, "cubic_in"})
)`,
	},
	{
		canvas: "\x1b[48;5;236m\x1b[38;5;81m ┌──────────────────┐ \x1b[0m\n" +
			"\x1b[48;5;236m\x1b[38;5;81m │ \x1b[97mcanvas  \x1b[93m漢字\x1b[97m ok\x1b[38;5;81m │ \x1b[0m\n" +
			"\x1b[48;5;236m\x1b[38;5;81m └──────────────────┘ \x1b[0m",
		effect: `fx.parallel(
  fx.fade_from("black", "black", {1200, "expo_out"}),
  fx.coalesce({1000, "quad_in_out"})
)`,
	},
}

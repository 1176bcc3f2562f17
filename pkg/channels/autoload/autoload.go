// Package autoload registers every built-in channel factory via side
// effect. Blank-import it from main.
package autoload

import (
	_ "tempo/pkg/channels/telegram"
	_ "tempo/pkg/channels/web"
)

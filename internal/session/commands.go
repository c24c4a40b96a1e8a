package session

import "strings"

const (
	CmdStart         = "start"
	CmdHelp          = "help"
	CmdAddMedication = "addmedication"
	CmdAddPatient    = "addpatient"
	CmdPatients      = "patients"
	CmdTake          = "take"
	CmdGetAll        = "getall"
	CmdSharePatient  = "sharepatient"
	CmdCancel        = "cancel"
	CmdTimezone      = "timezone"
)

var knownCommands = map[string]struct{}{
	CmdStart: {}, CmdHelp: {}, CmdAddMedication: {}, CmdAddPatient: {}, CmdPatients: {},
	CmdTake: {}, CmdGetAll: {}, CmdSharePatient: {}, CmdCancel: {}, CmdTimezone: {},
}

type command struct {
	Name string
	Args string
}

// parseCommand reconoce "/name[@bot] args". Solo devuelve ok para comandos
// conocidos; "/loquesea" se trata como texto.
func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return command{}, false
	}

	head, args, _ := strings.Cut(text[1:], " ")
	name, _, _ := strings.Cut(head, "@")
	name = strings.ToLower(name)

	if _, ok := knownCommands[name]; !ok {
		return command{}, false
	}
	return command{Name: name, Args: strings.TrimSpace(args)}, true
}

package host

import "github.com/beevik/cmd"

// A handler carries out a command. Returning a non-nil error stops the host.
type handler func(h *Host, c *cmd.Command, args []string) error

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "hwcheck"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        handler((*Host).cmdHelp),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "adc",
		Brief: "Add with carry",
		Description: "Run ADC on the accumulator with the given operand," +
			" using the carry and decimal flags in the status register." +
			" The result is computed the way the configured architecture" +
			" computes it, including for operands that are not valid BCD.",
		Usage: "adc <operand>",
		Data:  handler((*Host).cmdADC),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "discriminate",
		Brief: "List inputs that tell the 6502 and 65c02 apart",
		Description: "List decimal-mode ADC and SBC inputs for which the" +
			" 6502 and 65c02 produce different results. At most <count>" +
			" inputs are listed per operation.",
		Usage: "discriminate [<count>]",
		Data:  handler((*Host).cmdDiscriminate),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "generate",
		Brief: "Generate a reference dump",
		Description: "Write the ADC/SBC reference dump of the configured" +
			" architecture to a file and report whether its MD5 sum matches" +
			" the dump captured on hardware. If no file name is given, the" +
			" conventional name for the architecture is used.",
		Usage: "generate [<filename>]",
		Data:  handler((*Host).cmdGenerate),
	})

	// Memory commands
	me := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  handler((*Host).cmdMemoryDump),
	})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set memory at address",
		Description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values.",
		Usage: "memory set <address> <byte> [<byte> ...]",
		Data:  handler((*Host).cmdMemorySet),
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        handler((*Host).cmdQuit),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "register",
		Brief: "Display register contents",
		Description: "Display the current contents of all CPU registers," +
			" along with the configured architecture.",
		Usage: "register",
		Data:  handler((*Host).cmdRegister),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "sbc",
		Brief: "Subtract with carry",
		Description: "Run SBC on the accumulator with the given operand," +
			" using the carry and decimal flags in the status register.",
		Usage: "sbc <operand>",
		Data:  handler((*Host).cmdSBC),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments. Registers (a, x, y, sp, pc) and flags" +
			" (carry, zero, interrupt, decimal, overflow, sign) may also" +
			" be set.",
		Usage: "set [<var> <value>]",
		Data:  handler((*Host).cmdSet),
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "store",
		Brief: "Execute an unstable store",
		Description: "Execute the unstable store instruction with the given" +
			" opcode at the program counter and display the bus cycles it" +
			" performs. The instruction bytes must already be in memory." +
			" With no opcode, list the unstable stores.",
		Usage: "store [<opcode>]",
		Data:  handler((*Host).cmdStore),
	})

	// Verify commands
	ve := root.AddSubtree(cmd.TreeDescriptor{Name: "verify", Brief: "Verify against hardware captures"})
	ve.AddCommand(cmd.CommandDescriptor{
		Name:  "alu",
		Brief: "Verify ADC/SBC against a reference dump",
		Description: "Compare every ADC and SBC input of the configured" +
			" architecture against a reference dump file.",
		Usage: "verify alu <filename>",
		Data:  handler((*Host).cmdVerifyALU),
	})
	ve.AddCommand(cmd.CommandDescriptor{
		Name:  "store",
		Brief: "Verify an unstable store against a capture file",
		Description: "Run every case in a JSON capture file through the" +
			" unstable store model and compare registers, memory and bus" +
			" cycles. The opcode is taken from the first case unless" +
			" specified.",
		Usage: "verify store <filename> [<opcode>]",
		Data:  handler((*Host).cmdVerifyStore),
	})

	root.AddShortcut("?", "help")
	root.AddShortcut("d", "discriminate")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut(".", "register")
	root.AddShortcut("va", "verify alu")
	root.AddShortcut("vs", "verify store")

	cmds = root
}

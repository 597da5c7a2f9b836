package roletest

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/common-fate/clio"
	"github.com/common-fate/roletest/pkg/config"
	"github.com/common-fate/roletest/pkg/testable"
	"github.com/fatih/structs"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var ConfigCommand = cli.Command{
	Name:        "config",
	Usage:       "Manage roletest settings",
	Subcommands: []*cli.Command{&printConfigCommand, &setConfigCommand},
	Action:      printConfigCommand.Action,
}

var printConfigCommand = cli.Command{
	Name:  "print",
	Usage: "List roletest settings",
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fields := structs.Map(cfg)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		data := make([][]string, 0, len(names))
		for _, name := range names {
			data = append(data, []string{name, fmt.Sprintf("%v", fields[name])})
		}

		table := tablewriter.NewWriter(os.Stderr)
		table.SetHeader([]string{"SETTING", "VALUE"})
		table.SetAutoWrapText(false)
		table.SetAutoFormatHeaders(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetRowLine(true)
		table.SetHeaderLine(false)
		table.SetBorder(false)
		table.SetTablePadding("\t")
		table.SetNoWhiteSpace(true)
		table.AppendBulk(data)
		table.Render()

		configPath, err := config.RoletestConfigFilePath()
		if err != nil {
			return err
		}
		clio.Infof("Config file: %s", configPath)
		return nil
	},
}

var setConfigCommand = cli.Command{
	Name:  "set",
	Usage: "Set a value in settings",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "setting", Aliases: []string{"s"}, Usage: "The name of the setting to change, e.g. 'DisableUsageTips'"},
		&cli.StringFlag{Name: "value", Aliases: []string{"v"}, Usage: "The value to set the setting to"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fieldMap := fieldOptions(cfg)

		fields := make([]string, 0, len(fieldMap))
		for k := range fieldMap {
			fields = append(fields, k)
		}
		sort.Strings(fields)

		selectedFieldName := c.String("setting")
		if selectedFieldName == "" {
			p := &survey.Select{
				Message: "Select the setting to change",
				Options: fields,
			}
			err = testable.AskOne(p, &selectedFieldName, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr))
			if err != nil {
				return err
			}
		}

		selectedField, ok := fieldMap[selectedFieldName]
		if !ok {
			return fmt.Errorf("the selected field %s is not a valid config parameter", selectedFieldName)
		}

		var value interface{}
		switch selectedField.kind() {
		case reflect.Bool:
			if c.IsSet("value") {
				value, err = strconv.ParseBool(c.String("value"))
				if err != nil {
					return err
				}
			} else {
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Enter new value for %s:", selectedFieldName),
					Default: selectedField.value().(bool),
				}
				err = testable.AskOne(prompt, &value, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr))
				if err != nil {
					return err
				}
			}

		case reflect.String:
			if c.IsSet("value") {
				value = c.String("value")
			} else {
				var str string
				prompt := &survey.Input{
					Message: fmt.Sprintf("Enter new value for %s:", selectedFieldName),
					Default: selectedField.value().(string),
				}
				err = testable.AskOne(prompt, &str, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr))
				if err != nil {
					return err
				}
				value = str
			}
		}

		if err := selectedField.set(value); err != nil {
			return err
		}

		clio.Infof("Updating the value of %s to %v", selectedFieldName, value)
		err = cfg.Save()
		if err != nil {
			return err
		}
		clio.Success("Config updated successfully")
		return nil
	},
}

type field struct {
	ftype  reflect.StructField
	fvalue reflect.Value
}

func (f field) set(value any) error {
	newValue := reflect.ValueOf(value)
	if !newValue.Type().ConvertibleTo(f.ftype.Type) {
		return fmt.Errorf("invalid type for %s", f.ftype.Name)
	}
	f.fvalue.Set(newValue.Convert(f.ftype.Type))
	return nil
}

func (f field) value() any {
	return f.fvalue.Interface()
}

func (f field) kind() reflect.Kind {
	return f.ftype.Type.Kind()
}

// fieldOptions maps the settable config fields by name. All settings are
// strings or bools.
func fieldOptions(cfg *config.Config) map[string]field {
	t := reflect.TypeOf(*cfg)
	v := reflect.ValueOf(cfg).Elem()

	fieldMap := make(map[string]field, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		switch t.Field(i).Type.Kind() {
		case reflect.Bool, reflect.String:
			fieldMap[t.Field(i).Name] = field{ftype: t.Field(i), fvalue: v.Field(i)}
		}
	}
	return fieldMap
}

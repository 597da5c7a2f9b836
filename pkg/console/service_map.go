package console

// ServiceMap maps the --service flag shorthands to AWS console URL paths.
// e.g. passing in `--service ec2` opens the console at the ec2/v2 URL.
var ServiceMap = map[string]string{
	"":               "console",
	"athena":         "athena",
	"cfn":            "cloudformation",
	"cloudformation": "cloudformation",
	"cloudtrail":     "cloudtrail",
	"cloudwatch":     "cloudwatch",
	"ct":             "cloudtrail",
	"cw":             "cloudwatch",
	"ddb":            "dynamodbv2",
	"dynamodb":       "dynamodbv2",
	"ec2":            "ec2/v2",
	"ecr":            "ecr",
	"ecs":            "ecs",
	"eks":            "eks",
	"iam":            "iamv2",
	"kms":            "kms",
	"l":              "lambda",
	"lambda":         "lambda",
	"r53":            "route53/v2",
	"rds":            "rds",
	"route53":        "route53/v2",
	"s3":             "s3",
	"secretsmanager": "secretsmanager",
	"sns":            "sns/v3",
	"sqs":            "sqs/v2",
	"ssm":            "systems-manager",
}

// globalServiceMap lists services whose console pages are not regional, so
// no region parameter is appended to the destination.
var globalServiceMap = map[string]bool{
	"iam":     true,
	"r53":     true,
	"route53": true,
}

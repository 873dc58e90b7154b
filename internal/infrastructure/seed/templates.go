package seed

import (
	"context"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/pkg/logger"
)

type stepDef struct {
	order          int
	title          string
	description    string
	command        string
	timeoutSeconds int
}

type templateDef struct {
	template entity.LabTemplate
	steps    []stepDef
}

// Templates seeds the default template catalog on an empty database.
// A non-empty catalog is left untouched so operator edits survive restarts.
func Templates(ctx context.Context, templates repository.LabTemplateRepository, steps repository.SetupStepRepository, log logger.Logger) error {
	count, err := templates.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Debug("Template catalog already populated", logger.Int64("count", count))
		return nil
	}

	log.Info("Creating default lab templates")
	for _, def := range defaultTemplates() {
		template, err := templates.Create(ctx, &def.template)
		if err != nil {
			return err
		}

		for _, sd := range def.steps {
			step := &entity.SetupStep{
				TemplateID:        template.ID,
				StepOrder:         sd.order,
				Title:             sd.title,
				Description:       sd.description,
				SetupCommand:      sd.command,
				ExpectedExitCode:  0,
				TimeoutSeconds:    sd.timeoutSeconds,
				RetryCount:        2,
				ContinueOnFailure: false,
				WorkingDirectory:  "/",
			}
			if _, err := steps.Create(ctx, step); err != nil {
				return err
			}
		}
	}

	log.Info("Default templates created")
	return nil
}

func defaultTemplates() []templateDef {
	return []templateDef{
		pythonTemplate(),
		dockerTemplate(),
		nodejsTemplate(),
		johndoeTemplate(),
	}
}

func pythonTemplate() templateDef {
	return templateDef{
		template: entity.LabTemplate{
			ID:                    "python-dev-template",
			Name:                  "Python Development Environment",
			Description:           "Complete Python development environment with popular packages and tools",
			LabType:               "python",
			BaseImage:             "python:3.9-slim",
			DurationMinutes:       120,
			Difficulty:            entity.DifficultyBeginner,
			TotalSetupTimeSeconds: 300,
			SuccessCriteria:       "Python environment ready with pip, jupyter, and common packages installed",
			CreatedBy:             "system",
			IsActive:              true,
		},
		steps: []stepDef{
			{1, "Update System Packages", "Update package manager and install basic tools",
				"apt-get update && apt-get install -y curl wget git vim", 120},
			{2, "Install Python Packages", "Install essential Python packages",
				"pip install --upgrade pip && pip install jupyter pandas numpy matplotlib requests flask", 180},
			{3, "Setup Jupyter", "Configure Jupyter notebook",
				`jupyter notebook --generate-config && echo "c.NotebookApp.ip = '0.0.0.0'" >> ~/.jupyter/jupyter_notebook_config.py`, 60},
			{4, "Create Sample Project", "Create a sample Python project structure",
				`mkdir -p /workspace/sample-project && cd /workspace/sample-project && echo 'print("Hello from Python Lab!")' > hello.py`, 30},
		},
	}
}

func dockerTemplate() templateDef {
	return templateDef{
		template: entity.LabTemplate{
			ID:                    "docker-dev-template",
			Name:                  "Docker Development Environment",
			Description:           "Docker development environment with Docker-in-Docker capability",
			LabType:               "docker",
			BaseImage:             "docker:20.10-dind",
			DurationMinutes:       180,
			Difficulty:            entity.DifficultyIntermediate,
			TotalSetupTimeSeconds: 240,
			SuccessCriteria:       "Docker daemon running and able to build/run containers",
			CreatedBy:             "system",
			IsActive:              true,
		},
		steps: []stepDef{
			{1, "Start Docker Daemon", "Start Docker daemon in background",
				"dockerd-entrypoint.sh &", 30},
			{2, "Wait for Docker", "Wait for Docker daemon to be ready",
				"sleep 10 && docker info", 30},
			{3, "Install Docker Compose", "Install Docker Compose tool",
				"apk add --no-cache docker-compose", 60},
			{4, "Create Sample Dockerfile", "Create a sample Dockerfile for testing",
				"mkdir -p /workspace/docker-demo && cd /workspace/docker-demo && echo 'FROM alpine:latest\nRUN echo \"Hello from Docker Lab!\"\nCMD [\"echo\", \"Container is running!\"]' > Dockerfile", 30},
			{5, "Build Sample Image", "Build the sample Docker image",
				"cd /workspace/docker-demo && docker build -t sample-app .", 60},
		},
	}
}

func nodejsTemplate() templateDef {
	return templateDef{
		template: entity.LabTemplate{
			ID:                    "nodejs-dev-template",
			Name:                  "Node.js Development Environment",
			Description:           "Node.js development environment with popular frameworks and tools",
			LabType:               "nodejs",
			BaseImage:             "node:16-alpine",
			DurationMinutes:       90,
			Difficulty:            entity.DifficultyBeginner,
			TotalSetupTimeSeconds: 180,
			SuccessCriteria:       "Node.js environment ready with npm packages and sample app",
			CreatedBy:             "system",
			IsActive:              true,
		},
		steps: []stepDef{
			{1, "Install System Tools", "Install basic development tools",
				"apk add --no-cache git vim curl", 60},
			{2, "Create Sample Project", "Create a sample Node.js project",
				"mkdir -p /workspace/nodejs-app && cd /workspace/nodejs-app && npm init -y", 30},
			{3, "Install Dependencies", "Install popular Node.js packages",
				"cd /workspace/nodejs-app && npm install express nodemon cors dotenv", 90},
			{4, "Create Sample App", "Create a sample Express.js application",
				"cd /workspace/nodejs-app && echo 'const express = require(\"express\");\nconst app = express();\napp.get(\"/\", (req, res) => res.json({message: \"Hello from Node.js Lab!\"}));\napp.listen(3000, () => console.log(\"Server running on port 3000\"));' > app.js", 30},
		},
	}
}

func johndoeTemplate() templateDef {
	return templateDef{
		template: entity.LabTemplate{
			ID:                    "johndoe-user-template",
			Name:                  "JohnDoe User Environment",
			Description:           "Complete development environment with johndoe user setup and development tools",
			LabType:               "johndoe",
			BaseImage:             "ubuntu:20.04",
			DurationMinutes:       150,
			Difficulty:            entity.DifficultyIntermediate,
			TotalSetupTimeSeconds: 480,
			SuccessCriteria:       "johndoe user created and environment ready with development tools",
			CreatedBy:             "system",
			IsActive:              true,
		},
		steps: []stepDef{
			{1, "Wait for System Ready", "Wait for container to be fully ready and release any locks",
				"sleep 15 && echo 'System ready'", 30},
			{2, "Check and Wait for APT Lock", "Ensure no apt processes are running",
				"while fuser /var/lib/dpkg/lock-frontend >/dev/null 2>&1 || fuser /var/lib/apt/lists/lock >/dev/null 2>&1; do echo 'Waiting for apt lock...'; sleep 5; done && echo 'APT ready'", 120},
			{3, "Update System and Install Basic Tools", "Update package manager and install essential system tools",
				"DEBIAN_FRONTEND=noninteractive apt-get update && DEBIAN_FRONTEND=noninteractive apt-get install -y curl wget git vim sudo passwd adduser", 180},
			{4, "Create JohnDoe User", "Create johndoe user with home directory and bash shell",
				"adduser --disabled-password --gecos '' johndoe && echo 'johndoe:password123' | chpasswd", 30},
			{5, "Grant Sudo Privileges", "Add johndoe to sudo group for administrative privileges",
				"usermod -aG sudo johndoe", 10},
			{6, "Setup JohnDoe Home Directory", "Create workspace and setup basic directories for johndoe",
				"su - johndoe -c 'mkdir -p /home/johndoe/workspace /home/johndoe/projects /home/johndoe/scripts'", 20},
			{7, "Install Development Tools", "Install Python, Node.js, and other development tools",
				"DEBIAN_FRONTEND=noninteractive apt-get install -y python3 python3-pip nodejs npm build-essential", 240},
			{8, "Setup Git Configuration", "Configure git for johndoe user",
				`su - johndoe -c 'git config --global user.name "John Doe" && git config --global user.email "johndoe@example.com"'`, 15},
			{9, "Install Python Packages for JohnDoe", "Install essential Python packages in johndoe's environment",
				"su - johndoe -c 'pip3 install --user jupyter pandas numpy matplotlib requests flask'", 180},
			{10, "Setup Bash Profile", "Configure bash profile and aliases for johndoe",
				`su - johndoe -c 'echo "export PATH=\$HOME/.local/bin:\$PATH" >> /home/johndoe/.bashrc && echo "alias ll=\"ls -la\"" >> /home/johndoe/.bashrc && echo "alias workspace=\"cd /home/johndoe/workspace\"" >> /home/johndoe/.bashrc'`, 15},
			{11, "Create Sample Projects", "Create sample projects and scripts for johndoe",
				`su - johndoe -c 'cd /home/johndoe/workspace && echo "print(\"Hello from JohnDoe Lab!\")" > hello.py && echo "console.log(\"Hello from JohnDoe Node.js!\");" > hello.js && printf "#!/bin/bash\necho \"Welcome JohnDoe!\"\nwhoami\npwd\n" > /home/johndoe/scripts/welcome.sh && chmod +x /home/johndoe/scripts/welcome.sh'`, 30},
			{12, "Setup SSH Keys", "Generate SSH keys for johndoe user",
				`su - johndoe -c 'mkdir -p /home/johndoe/.ssh && ssh-keygen -t rsa -b 4096 -f /home/johndoe/.ssh/id_rsa -N "" && cat /home/johndoe/.ssh/id_rsa.pub > /home/johndoe/.ssh/authorized_keys && chmod 600 /home/johndoe/.ssh/authorized_keys && chmod 700 /home/johndoe/.ssh'`, 30},
			{13, "Verify JohnDoe Environment", "Verify that johndoe user environment is properly configured",
				"su - johndoe -c 'whoami && pwd && ls -la /home/johndoe/ && python3 --version && node --version && git --version'", 30},
			{14, "Configure Default User Login", "Setup environment to switch to johndoe user by default",
				`echo '#!/bin/bash' > /etc/profile.d/johndoe-login.sh && echo 'if [ "$USER" = "root" ] && [ -t 0 ]; then' >> /etc/profile.d/johndoe-login.sh && echo '  exec su - johndoe' >> /etc/profile.d/johndoe-login.sh && echo 'fi' >> /etc/profile.d/johndoe-login.sh && chmod +x /etc/profile.d/johndoe-login.sh`, 15},
			{15, "Final Verification", "Final check that everything is working",
				`su - johndoe -c 'echo "JohnDoe environment setup complete!" && /home/johndoe/scripts/welcome.sh'`, 20},
		},
	}
}
